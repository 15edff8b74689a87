package models

import "time"

// UserSettings holds per-user company identity used during validation.
// The company GST number is what uploaded invoices are checked against.
type UserSettings struct {
	UserID       string    `json:"user_id"`
	CompanyName  string    `json:"company_name"`
	CompanyGSTNo string    `json:"company_gst_no"`
	UpdatedAt    time.Time `json:"updated_at"`
}
