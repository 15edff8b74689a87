package statement

import (
	"bytes"
	"encoding/csv"
	"os"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// csvRows decodes a CSV statement into raw rows. Banks pad rows unevenly,
// so per-record field counting is disabled.
func csvRows(data []byte) ([][]string, error) {
	const op = "csvRows"

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, wrapParseError("csv", op, ErrParseFailed, err.Error())
	}
	return rows, nil
}

// xlsxRows decodes the first sheet of an XLSX workbook.
func xlsxRows(data []byte) ([][]string, error) {
	const op = "xlsxRows"

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, wrapParseError("xlsx", op, ErrParseFailed, err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, wrapParseError("xlsx", op, ErrParseFailed, err.Error())
	}
	return rows, nil
}

// xlsRows decodes the first sheet of a legacy XLS workbook. The xls reader
// only opens files, so the upload is spooled to a temp file first.
func xlsRows(data []byte) ([][]string, error) {
	const op = "xlsRows"

	tmp, err := os.CreateTemp("", "stmt-*.xls")
	if err != nil {
		return nil, wrapParseError("xls", op, ErrParseFailed, err.Error())
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, wrapParseError("xls", op, ErrParseFailed, err.Error())
	}
	tmp.Close()

	book, err := xls.Open(tmp.Name(), "utf-8")
	if err != nil {
		return nil, wrapParseError("xls", op, ErrParseFailed, err.Error())
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, wrapParseError("xls", op, ErrParseFailed, "workbook has no readable sheet")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cells []string
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
