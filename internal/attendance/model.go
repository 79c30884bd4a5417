package attendance

import (
	"strings"

	"absensi/internal/store"
)

// DateLayout is the calendar-date format of the date column.
const DateLayout = "2006-01-02"

// Attendance table columns.
const (
	colDate = iota
	colStudentName
	colClass
	colStatus
	colNote
)

// Status values are the ones stored in the status column.
type Status string

const (
	StatusPresent      Status = "Hadir"
	StatusSick         Status = "Sakit"
	StatusExcusedLeave Status = "Izin"
	StatusAbsent       Status = "Alpha"
)

var Statuses = []Status{StatusPresent, StatusSick, StatusExcusedLeave, StatusAbsent}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Record is one attendance row. Position is its only identity and is valid
// only until the table changes shape.
type Record struct {
	Position    int    `json:"position"`
	Date        string `json:"date"`
	StudentName string `json:"studentName"`
	Class       string `json:"class"`
	Status      Status `json:"status"`
	Note        string `json:"note"`
}

func (r Record) ClassName() string { return r.Class }

// Blank reports whether the record is a cleared row.
func (r Record) Blank() bool {
	return strings.TrimSpace(r.Date+r.StudentName+r.Class+string(r.Status)+r.Note) == ""
}

func recordAt(position int, row store.Row) Record {
	return Record{
		Position:    position,
		Date:        row.Cell(colDate),
		StudentName: row.Cell(colStudentName),
		Class:       row.Cell(colClass),
		Status:      Status(row.Cell(colStatus)),
		Note:        row.Cell(colNote),
	}
}

func (r Record) row() store.Row {
	return store.Row{r.Date, r.StudentName, r.Class, string(r.Status), r.Note}
}

// Filter narrows a listing. Empty fields do not filter. Dates are
// YYYY-MM-DD and both bounds are inclusive.
type Filter struct {
	Class     string `form:"class"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}
