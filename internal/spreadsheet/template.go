// Package spreadsheet exports the schedule import template and parses filled
// templates back into schedule records.
package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "SCHEDULE"
	FileName  = "SCHEDULE_TEMPLATE.xlsx"

	// headerRows is the header plus the sample row
	headerRows = 2
)

// Variant selects the column layout of the template
type Variant string

const (
	// Standard is the layout used from the schedule list
	Standard Variant = "standard"
	// ProductLinked adds the product level columns used from the product editor
	ProductLinked Variant = "product"
)

// ParseVariant maps a query value to a Variant, defaulting to Standard
func ParseVariant(s string) Variant {
	if Variant(s) == ProductLinked {
		return ProductLinked
	}
	return Standard
}

// Column is one template column
type Column struct {
	Name   string
	Width  float64
	Sample string
}

var (
	colName        = Column{"schedule_name", 35, "Workshop React Advanced [SAMPLE DATA DONT DELETE]"}
	colDescription = Column{"schedule_description", 50, "Learn advanced React patterns and best practices"}
	colDate        = Column{"schedule_date", 15, "2025/11/15"}
	colClose       = Column{"schedule_close_registration_date", 15, "2025/11/15"}
	colStart       = Column{"schedule_start", 12, "09:00"}
	colEnd         = Column{"schedule_end", 12, "17:00"}
	colLocation    = Column{"location", 30, "Jakarta Convention Center"}
	colQuota       = Column{"quota", 10, "30"}
	colDuration    = Column{"duration", 10, "480"}
	colLink        = Column{"link", 50, "https://forms.google.com/react-workshop-registration"}
	colAssessment  = Column{"is_assestment", 15, "y/n"}
	colBenefits    = Column{"benefits", 40, "Certificate|Lunch|Materials"}
	colSkill       = Column{"skill_level", 15, "BEGINNER/INTERMEDIATE/EXPERT"}
	colLanguage    = Column{"language", 15, "INDONESIA/INGGRIS"}
	colStatus      = Column{"status", 15, "OPEN_SEAT/FULL_BOOKED"}
)

// Columns returns the ordered columns of the variant
func (v Variant) Columns() []Column {
	if v == ProductLinked {
		return []Column{
			colName, colDescription, colDate, colClose, colStart, colEnd,
			colLocation, colQuota, colDuration, colLink, colAssessment,
			colBenefits, colSkill, colLanguage, colStatus,
		}
	}
	status := colStatus
	status.Width = 30
	return []Column{
		colName, colDescription, colDate, colClose, colStart, colEnd,
		colLocation, colQuota, colDuration, colAssessment, status,
	}
}

// Export writes the template workbook of v to w: a header row, one sample
// row and fixed column widths. Every cell is written as text.
func Export(w io.Writer, v Variant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range v.Columns() {
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, letter+"1", col.Name); err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, letter+"2", col.Sample); err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, letter, letter, col.Width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
