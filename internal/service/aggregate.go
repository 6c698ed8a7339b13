package service

import (
	"strings"
	"time"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

// MonthLayout is the filter format for monthly views.
const MonthLayout = "2006-01"

// AggregateDaily projects raw attendance records onto a single calendar day.
//
// Records are filtered by string equality on attendance_date, optionally
// scoped to a roster (records for national IDs outside the roster are dropped
// silently: a student attending outside their registered branch must not
// appear in a branch-scoped report), then grouped by national ID. Within a
// group the first record seen for each distinct course is retained. Output
// order is the insertion order of first appearance in the filtered list.
// Duplicate (student, course, date) submissions collapse to one entry.
func AggregateDaily(records []models.AttendanceRecord, roster []models.StudyInfo, date string) models.DailyAttendanceView {
	view := models.DailyAttendanceView{
		Date:     date,
		Courses:  []string{},
		Students: []models.DailyStudentRow{},
	}

	var rosterIDs map[string]struct{}
	if roster != nil {
		rosterIDs = make(map[string]struct{}, len(roster))
		for _, entry := range roster {
			rosterIDs[entry.NationalID] = struct{}{}
		}
	}

	rowIndex := make(map[string]int)
	courseSeen := make(map[string]map[string]struct{})
	columnSeen := make(map[string]struct{})

	for _, record := range records {
		if record.AttendanceDate != date {
			continue
		}
		if rosterIDs != nil {
			if _, ok := rosterIDs[record.NationalID]; !ok {
				continue
			}
		}

		idx, ok := rowIndex[record.NationalID]
		if !ok {
			idx = len(view.Students)
			rowIndex[record.NationalID] = idx
			courseSeen[record.NationalID] = make(map[string]struct{})
			view.Students = append(view.Students, models.DailyStudentRow{
				NationalID: record.NationalID,
				Name:       record.Name,
				LevelID:    record.LevelID,
				DiplomaID:  record.DiplomaID,
				Courses:    []models.CourseAttendance{},
			})
		}

		if _, dup := courseSeen[record.NationalID][record.Course]; dup {
			continue
		}
		courseSeen[record.NationalID][record.Course] = struct{}{}
		view.Students[idx].Courses = append(view.Students[idx].Courses, models.CourseAttendance{
			Course:         record.Course,
			LevelID:        record.LevelID,
			DiplomaID:      record.DiplomaID,
			AttendanceTime: record.AttendanceTime,
		})

		if _, ok := columnSeen[record.Course]; !ok {
			columnSeen[record.Course] = struct{}{}
			view.Courses = append(view.Courses, record.Course)
		}
	}

	return view
}

// FilterDailySearch narrows a daily view to students whose name or national
// ID contains the search term. Name matching is case-insensitive. An empty
// term returns the view unchanged. Course columns are recomputed so the view
// only carries columns its remaining rows use.
func FilterDailySearch(view models.DailyAttendanceView, term string) models.DailyAttendanceView {
	if term == "" {
		return view
	}
	lowered := strings.ToLower(term)

	filtered := models.DailyAttendanceView{
		Date:     view.Date,
		Courses:  []string{},
		Students: []models.DailyStudentRow{},
	}
	columnSeen := make(map[string]struct{})
	for _, row := range view.Students {
		if !strings.Contains(strings.ToLower(row.Name), lowered) && !strings.Contains(row.NationalID, term) {
			continue
		}
		filtered.Students = append(filtered.Students, row)
		for _, course := range row.Courses {
			if _, ok := columnSeen[course.Course]; !ok {
				columnSeen[course.Course] = struct{}{}
				filtered.Courses = append(filtered.Courses, course.Course)
			}
		}
	}
	return filtered
}

// MonthDays lists every calendar date of the given yyyy-MM month in wire
// format. Dates are generated as UTC civil days, so the count is exact for
// any month regardless of the host timezone or daylight-saving transitions.
func MonthDays(month string) ([]string, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month format, expected YYYY-MM")
	}
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	days := make([]string, 0, 31)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(models.DateLayout))
	}
	return days, nil
}

// AggregateMonthly derives per-student presence vectors and attendance
// percentages for one calendar month. Every roster student appears exactly
// once, in roster order, with a presence entry per calendar day (any course
// counts). A student with no records yields 0%, not an error.
func AggregateMonthly(records []models.AttendanceRecord, roster []models.StudyInfo, month string) (models.MonthlyAttendanceView, error) {
	days, err := MonthDays(month)
	if err != nil {
		return models.MonthlyAttendanceView{}, err
	}

	attended := make(map[string]map[string]struct{})
	for _, record := range records {
		if !strings.HasPrefix(record.AttendanceDate, month+"-") {
			continue
		}
		dates, ok := attended[record.NationalID]
		if !ok {
			dates = make(map[string]struct{})
			attended[record.NationalID] = dates
		}
		dates[record.AttendanceDate] = struct{}{}
	}

	view := models.MonthlyAttendanceView{
		Month:    month,
		Days:     days,
		Students: make([]models.MonthlyStudentRow, 0, len(roster)),
	}

	for _, entry := range roster {
		presence := make([]models.DayPresence, len(days))
		present := 0
		for i, day := range days {
			_, was := attended[entry.NationalID][day]
			presence[i] = models.DayPresence{Date: day, Attended: was}
			if was {
				present++
			}
		}
		percentage := roundHalfUpPercent(present, len(days))
		view.Students = append(view.Students, models.MonthlyStudentRow{
			NationalID:  entry.NationalID,
			Name:        entry.StudentName,
			DiplomName:  entry.DiplomName,
			LevelName:   entry.LevelName,
			Presence:    presence,
			DaysPresent: present,
			Percentage:  percentage,
			Band:        models.BandFor(percentage),
		})
	}

	return view, nil
}

// roundHalfUpPercent computes round(100*part/total) with exact integer
// arithmetic. total is always >= 28 here (days in a month).
func roundHalfUpPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total/2) / total
}
