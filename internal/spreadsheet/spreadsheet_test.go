package spreadsheet

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cmsadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportTemplate(t *testing.T, v Variant) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, v))
	return &buf
}

// withRows opens an exported template and appends data rows from row 3
func withRows(t *testing.T, v Variant, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f, err := excelize.OpenReader(exportTemplate(t, v))
	require.NoError(t, err)
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, headerRows+1+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(SheetName, cell, &row))
	}
	var out bytes.Buffer
	require.NoError(t, f.Write(&out))
	return &out
}

func TestExport_Layout(t *testing.T) {
	for _, v := range []Variant{Standard, ProductLinked} {
		f, err := excelize.OpenReader(exportTemplate(t, v))
		require.NoError(t, err)

		assert.Equal(t, []string{SheetName}, f.GetSheetList())
		rows, err := f.GetRows(SheetName)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		cols := v.Columns()
		require.Len(t, rows[0], len(cols))
		for i, col := range cols {
			assert.Equal(t, col.Name, rows[0][i])
			assert.Equal(t, col.Sample, rows[1][i])
			letter, _ := excelize.ColumnNumberToName(i + 1)
			width, err := f.GetColWidth(SheetName, letter)
			require.NoError(t, err)
			assert.Equal(t, col.Width, width, col.Name)
		}
		assert.True(t, strings.Contains(rows[1][0], "[SAMPLE DATA DONT DELETE]"))
		f.Close()
	}

	assert.Len(t, Standard.Columns(), 11)
	assert.Len(t, ProductLinked.Columns(), 15)
	assert.Equal(t, "link", ProductLinked.Columns()[9].Name)
}

func TestRoundTrip_TemplateHasNoRecords(t *testing.T) {
	for _, v := range []Variant{Standard, ProductLinked} {
		rep, err := Parse(exportTemplate(t, v), v)
		require.NoError(t, err)
		assert.Empty(t, rep.Records)
		assert.NotNil(t, rep.Records)
		assert.Empty(t, rep.Mismatches)
	}
}

func TestImport_ProductRow(t *testing.T) {
	buf := withRows(t, ProductLinked, []any{
		"Go Fundamentals", "Intro to Go", "2025/11/15", "2025-11-10", "09:00", "17:00",
		"Jakarta", "30", "480", "https://forms.example.com/go", "Yes",
		"Certificate | Lunch |Materials", "BEGINNER", "INDONESIA", "full booked",
	})

	recs, err := Import(buf, ProductLinked)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]

	assert.Equal(t, "Go Fundamentals", *r.ScheduleName)
	assert.Equal(t, "Intro to Go", *r.ScheduleDescription)
	assert.Equal(t, "2025-11-15", r.ScheduleDate.String())
	assert.Equal(t, "2025-11-10", r.ScheduleCloseRegistrationDate.String())
	assert.Equal(t, "09:00", *r.ScheduleStart)
	assert.Equal(t, "17:00", *r.ScheduleEnd)
	assert.Equal(t, "Jakarta", *r.Location)
	assert.Equal(t, 30, *r.Quota)
	assert.Equal(t, 480, *r.Duration)
	assert.Equal(t, "https://forms.example.com/go", *r.Link)
	assert.True(t, *r.IsAssessment)
	assert.Equal(t, []string{"Certificate", "Lunch", "Materials"}, r.Benefits)
	assert.Equal(t, "BEGINNER", *r.SkillLevel)
	assert.Equal(t, "INDONESIA", *r.Language)
	assert.Equal(t, model.ScheduleFullBooked, *r.Status)
}

func TestImport_StandardCoercion(t *testing.T) {
	buf := withRows(t, Standard,
		[]any{"A", "", "not-a-date", "11/20/2025", "", "", "", "abc", "12.5", "maybe", "pending"},
		[]any{"", "skipped because first cell is empty"},
		[]any{"B", "desc", "", "", "", "", "", "", "", "N", "Open Seat"},
	)

	recs, err := Import(buf, Standard)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a := recs[0]
	assert.Nil(t, a.ScheduleDescription)
	assert.Equal(t, "not-a-date", a.ScheduleDate.String())
	assert.False(t, a.ScheduleDate.Parsed())
	assert.Equal(t, "2025-11-20", a.ScheduleCloseRegistrationDate.String())
	assert.Nil(t, a.Location)
	assert.Equal(t, 0, *a.Quota)
	assert.Equal(t, 12, *a.Duration)
	assert.False(t, *a.IsAssessment)
	assert.Equal(t, model.ScheduleOpenSeat, *a.Status)
	assert.Nil(t, a.Link)

	b := recs[1]
	assert.Nil(t, b.Quota)
	assert.Nil(t, b.ScheduleDate)
	assert.False(t, *b.IsAssessment)
	assert.Equal(t, model.ScheduleOpenSeat, *b.Status)

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schedule_name":"B","schedule_description":"desc","is_assestment":false,"status":"OPEN_SEAT"}`, string(raw))
}

func TestImport_Idempotent(t *testing.T) {
	buf := withRows(t, Standard, []any{"A", "d", "2025/1/5", "2025/1/4", "08:00", "10:00", "Bandung", "5", "120", "y", "OPEN_SEAT"})
	data := buf.Bytes()

	first, err := Import(bytes.NewReader(data), Standard)
	require.NoError(t, err)
	second, err := Import(bytes.NewReader(data), Standard)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "2025-01-05", first[0].ScheduleDate.String())
}

func TestImport_UnreadableWorkbook(t *testing.T) {
	recs, err := Import(strings.NewReader("definitely not a zip"), Standard)
	assert.ErrorIs(t, err, ErrUnreadableWorkbook)
	assert.Nil(t, recs)
}

func TestParse_HeaderMismatch(t *testing.T) {
	f, err := excelize.OpenReader(exportTemplate(t, Standard))
	require.NoError(t, err)
	require.NoError(t, f.SetCellStr(SheetName, "C1", "date"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	rep, err := Parse(&buf, Standard)
	require.NoError(t, err)
	require.Len(t, rep.Mismatches, 1)
	assert.Equal(t, Mismatch{Column: "C", Expected: "schedule_date", Found: "date"}, rep.Mismatches[0])
}

func TestCoercionHelpers(t *testing.T) {
	for in, want := range map[string]bool{"Y": true, "yes": true, "N": false, "maybe": false} {
		assert.Equal(t, want, ParseBool(in), in)
	}
	assert.Equal(t, "2025-11-15", ParseDate("2025/11/15").String())
	assert.Equal(t, "not-a-date", ParseDate("not-a-date").String())
	assert.Equal(t, "2025-11-15", ParseDate("45976").String())
	assert.Equal(t, "09:00", parseClock("0.375"))
	assert.Equal(t, "09:00", parseClock("09:00"))
	assert.Equal(t, Standard, ParseVariant("bogus"))
	assert.Equal(t, ProductLinked, ParseVariant("product"))
}

func TestSplitBenefits_KeepsEmptyEntries(t *testing.T) {
	assert.Equal(t, []string{"Certificate", "Lunch"}, SplitBenefits(" Certificate | Lunch "))
	assert.Equal(t, []string{"Certificate", "", "Materials"}, SplitBenefits("Certificate||Materials"))
	assert.Equal(t, []string{"Lunch", ""}, SplitBenefits("Lunch|"))
}
