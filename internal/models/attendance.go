package models

// DateLayout is the wire format for attendance dates. Filtering is performed
// by string equality on this layout, matching the upstream contract.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for attendance times.
const TimeLayout = "15:04:05"

// AttendanceRecord is one (student, course, date, time) confirmation event as
// stored by the attendance service. Append-only; duplicates are possible and
// tolerated at aggregation time.
type AttendanceRecord struct {
	NationalID     string `json:"national_id"`
	Name           string `json:"name"`
	Course         string `json:"course"`
	LevelID        string `json:"level_id"`
	DiplomaID      string `json:"diploma_id"`
	AttendanceDate string `json:"attendance_date"`
	AttendanceTime string `json:"attendance_time"`
	CreatedBy      string `json:"created_by,omitempty"`
}

// CourseAttendance is the representative record retained for one course a
// student attended on a given day (first occurrence wins).
type CourseAttendance struct {
	Course         string `json:"course"`
	LevelID        string `json:"level_id"`
	DiplomaID      string `json:"diploma_id"`
	AttendanceTime string `json:"attendance_time"`
}

// DailyStudentRow groups one student's distinct courses for a single day.
type DailyStudentRow struct {
	NationalID string             `json:"national_id"`
	Name       string             `json:"name"`
	LevelID    string             `json:"level_id"`
	DiplomaID  string             `json:"diploma_id"`
	Courses    []CourseAttendance `json:"courses"`
}

// DailyAttendanceView is the derived daily projection: one row per student in
// insertion order of first appearance, with the union of course columns in
// first-seen order.
type DailyAttendanceView struct {
	Date     string            `json:"date"`
	Courses  []string          `json:"courses"`
	Students []DailyStudentRow `json:"students"`
}

// DayPresence marks whether a student attended on one calendar day.
type DayPresence struct {
	Date     string `json:"date"`
	Attended bool   `json:"attended"`
}

// AttendanceBand classifies a monthly percentage for display.
type AttendanceBand string

const (
	BandGood     AttendanceBand = "good"
	BandWarning  AttendanceBand = "warning"
	BandCritical AttendanceBand = "critical"
)

// BandFor maps a percentage to its display band. Thresholds are inclusive on
// the lower bound of each band.
func BandFor(percentage int) AttendanceBand {
	switch {
	case percentage >= 80:
		return BandGood
	case percentage >= 50:
		return BandWarning
	default:
		return BandCritical
	}
}

// MonthlyStudentRow carries one roster student's presence vector and derived
// percentage for a calendar month.
type MonthlyStudentRow struct {
	NationalID  string         `json:"national_id"`
	Name        string         `json:"name"`
	DiplomName  string         `json:"diplom_name"`
	LevelName   string         `json:"level_name"`
	Presence    []DayPresence  `json:"presence"`
	DaysPresent int            `json:"days_present"`
	Percentage  int            `json:"percentage"`
	Band        AttendanceBand `json:"band"`
}

// MonthlyAttendanceView is the derived monthly projection for a branch roster.
type MonthlyAttendanceView struct {
	Month    string              `json:"month"`
	Days     []string            `json:"days"`
	Students []MonthlyStudentRow `json:"students"`
}
