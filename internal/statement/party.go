package statement

import (
	"regexp"
	"strings"
)

// Transfer channel prefixes seen at the start of Indian bank narrations.
var channelPrefixes = []string{
	"NEFT", "IMPS", "RTGS", "UPI", "ACH", "NACH", "ECS", "CHQ", "TPT", "FT", "MB",
}

var (
	// Reference tokens: long digit runs or alphanumeric codes dominated by digits.
	refTokenPattern = regexp.MustCompile(`^[A-Z]*\d[A-Z0-9]*$`)

	// UPI handles like name@okaxis carry the payer before the @.
	upiHandlePattern = regexp.MustCompile(`^([A-Z0-9.]+)@[A-Z]+$`)
)

// ExtractPartyName pulls a counterparty guess out of a bank narration.
// Narrations look like "NEFT/SBIN0001234/ABC TRADERS/INV PAYMENT": channel
// prefix, then reference codes, with the human-readable party somewhere in
// between. The guess feeds the matching engine as a hint; an empty result
// means the full description is used instead.
func ExtractPartyName(description string) string {
	text := strings.ToUpper(strings.TrimSpace(description))
	if text == "" {
		return ""
	}

	// Split on the common narration delimiters.
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '/' || r == '-' || r == ':' || r == '|'
	})

	var words []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if isChannelToken(part) || isReferenceToken(part) {
			continue
		}
		if m := upiHandlePattern.FindStringSubmatch(part); m != nil {
			part = m[1]
			if isReferenceToken(part) {
				continue
			}
		}
		words = append(words, part)
	}

	if len(words) == 0 {
		return ""
	}

	// The first surviving segment is almost always the party; trailing
	// segments are remarks like "INV PAYMENT".
	return strings.Join(strings.Fields(words[0]), " ")
}

func isChannelToken(token string) bool {
	for _, prefix := range channelPrefixes {
		if token == prefix {
			return true
		}
	}
	return false
}

// isReferenceToken reports whether the token is a transaction reference or
// bank code rather than a name: all-digit runs, IFSC-like codes, or mixed
// codes where digits dominate.
func isReferenceToken(token string) bool {
	compact := strings.ReplaceAll(token, " ", "")
	if !refTokenPattern.MatchString(compact) {
		return false
	}
	var digits int
	for _, r := range compact {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 4 || digits == len(compact)
}
