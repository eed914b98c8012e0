package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"cmsadmin/internal/form"
	"cmsadmin/internal/model"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadableWorkbook is returned when the upload is not a readable xlsx
// workbook. No records are returned alongside it.
var ErrUnreadableWorkbook = errors.New("failed to parse Excel file")

// dateLayouts are tried in order on date cells
var dateLayouts = []string{
	"2006/1/2",
	"2006-01-02",
	"1/2/2006",
}

// Mismatch is a header cell that differs from the template
type Mismatch struct {
	Column   string `json:"column"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("column %s: expected %q, found %q", m.Column, m.Expected, m.Found)
}

// Report is the outcome of parsing one workbook
type Report struct {
	Records    []model.ScheduleImport `json:"records"`
	Mismatches []Mismatch             `json:"mismatches,omitempty"`
}

// Import parses a filled template and returns one record per data row
func Import(r io.Reader, v Variant) ([]model.ScheduleImport, error) {
	rep, err := Parse(r, v)
	if err != nil {
		return nil, err
	}
	return rep.Records, nil
}

// Parse reads the first sheet of the workbook, skips the header and sample
// rows and maps the remaining rows by column position. Header cells that do
// not match the template are reported but do not change the mapping.
func Parse(r io.Reader, v Variant) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrUnreadableWorkbook)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}

	cols := v.Columns()
	rep := &Report{Records: []model.ScheduleImport{}}
	if len(rows) > 0 {
		rep.Mismatches = compareHeader(rows[0], cols)
	}
	if len(rows) <= headerRows {
		return rep, nil
	}

	for _, row := range rows[headerRows:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		rep.Records = append(rep.Records, mapRow(row, cols))
	}
	return rep, nil
}

func compareHeader(header []string, cols []Column) []Mismatch {
	var out []Mismatch
	for i, col := range cols {
		found := ""
		if i < len(header) {
			found = strings.TrimSpace(header[i])
		}
		if !strings.EqualFold(found, col.Name) {
			letter, _ := excelize.ColumnNumberToName(i + 1)
			out = append(out, Mismatch{Column: letter, Expected: col.Name, Found: found})
		}
	}
	return out
}

func mapRow(row []string, cols []Column) model.ScheduleImport {
	var rec model.ScheduleImport
	for i, col := range cols {
		if i >= len(row) || row[i] == "" {
			continue
		}
		value := row[i]

		switch col.Name {
		case colName.Name:
			rec.ScheduleName = &value
		case colDescription.Name:
			rec.ScheduleDescription = &value
		case colDate.Name:
			d := ParseDate(value)
			rec.ScheduleDate = &d
		case colClose.Name:
			d := ParseDate(value)
			rec.ScheduleCloseRegistrationDate = &d
		case colStart.Name:
			t := parseClock(value)
			rec.ScheduleStart = &t
		case colEnd.Name:
			t := parseClock(value)
			rec.ScheduleEnd = &t
		case colLocation.Name:
			rec.Location = &value
		case colQuota.Name:
			n := form.ParseNumeric(value)
			rec.Quota = &n
		case colDuration.Name:
			n := form.ParseNumeric(value)
			rec.Duration = &n
		case colLink.Name:
			rec.Link = &value
		case colAssessment.Name:
			b := ParseBool(value)
			rec.IsAssessment = &b
		case colBenefits.Name:
			rec.Benefits = SplitBenefits(value)
		case colSkill.Name:
			rec.SkillLevel = &value
		case colLanguage.Name:
			rec.Language = &value
		case colStatus.Name:
			s := model.ParseScheduleStatus(value)
			rec.Status = &s
		}
	}
	return rec
}

// ParseDate tries the known layouts, then an Excel serial date number.
// Anything else is kept as the raw text.
func ParseDate(s string) model.CellDate {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.CellDate{Time: t}
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			y, m, d := t.Date()
			return model.CellDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
		}
	}
	return model.CellDate{Raw: s}
}

// parseClock turns an Excel time fraction (0.375) into "09:00"; text is kept
func parseClock(s string) string {
	frac, err := strconv.ParseFloat(s, 64)
	if err != nil || frac < 0 || frac >= 1 {
		return s
	}
	minutes := int(math.Round(frac * 24 * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseBool accepts "y" and "yes" in any case as true
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// SplitBenefits splits a pipe separated cell and trims every entry. Empty
// entries are kept so the list lines up with what was typed.
func SplitBenefits(s string) []string {
	parts := strings.Split(s, "|")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
