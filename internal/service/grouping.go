package service

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// Group is one bucket produced by GroupBy.
type Group[K comparable, T any] struct {
	Key     K
	Members []T
}

// GroupBy buckets items by key. Groups appear in first-seen order and members keep their input
// order. Items for which key reports false are skipped.
func GroupBy[K comparable, T any](items []T, key func(T) (K, bool)) []Group[K, T] {
	index := make(map[K]int)
	groups := make([]Group[K, T], 0)
	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Members = append(groups[i].Members, item)
	}
	return groups
}

// StudentGroupKey identifies the student an exam result belongs to. The embedded student id is
// preferred; when it is absent the display name is used and byName is true, which merges distinct
// students who share a name.
func StudentGroupKey(r models.ExamResult) (key string, byName bool, ok bool) {
	if r.Student != nil && r.Student.ID != 0 {
		return "id:" + strconv.FormatInt(r.Student.ID, 10), false, true
	}
	name := strings.TrimSpace(r.StudentName)
	if name == "" {
		return "", false, false
	}
	return "name:" + name, true, true
}

// ExamResultGroup is the grouped view of one student's results.
type ExamResultGroup struct {
	Key         string              `json:"key"`
	StudentID   *int64              `json:"studentId,omitempty"`
	StudentName string              `json:"studentName"`
	ClassName   string              `json:"className"`
	KeyedByName bool                `json:"keyedByName"`
	Results     []models.ExamResult `json:"results"`
}

// GroupExamResultsByStudent builds the per-student view.
func GroupExamResultsByStudent(results []models.ExamResult, logger *zap.Logger) []ExamResultGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	groups := GroupBy(results, func(r models.ExamResult) (string, bool) {
		key, _, ok := StudentGroupKey(r)
		return key, ok
	})
	out := make([]ExamResultGroup, 0, len(groups))
	for _, g := range groups {
		first := g.Members[0]
		_, byName, _ := StudentGroupKey(first)
		group := ExamResultGroup{
			Key:         g.Key,
			StudentName: first.DisplayName(),
			ClassName:   first.ClassName,
			KeyedByName: byName,
			Results:     g.Members,
		}
		if first.Student != nil && first.Student.ID != 0 {
			id := first.Student.ID
			group.StudentID = &id
		}
		if byName {
			logger.Warn("exam results grouped by student name", zap.String("student", first.StudentName), zap.Int("results", len(g.Members)))
		}
		out = append(out, group)
	}
	return out
}

// PeriodsForClassDay keeps the periods of classID that fall on day.
func PeriodsForClassDay(periods []models.Period, classID int64, day models.DayOfWeek) []models.Period {
	out := make([]models.Period, 0)
	for _, p := range periods {
		if p.ClassID == classID && p.DayOfWeek == day {
			out = append(out, p)
		}
	}
	return out
}

// TimetableDay lists the periods of one weekday.
type TimetableDay struct {
	Day      models.DayOfWeek `json:"dayOfWeek"`
	Editable bool             `json:"editable"`
	Periods  []models.Period  `json:"periods"`
}

// Timetable groups a class's periods by weekday in Sunday-first order, each day sorted by period
// number. Periods with an unknown weekday are dropped.
func Timetable(periods []models.Period, classID int64) []TimetableDay {
	groups := GroupBy(periods, func(p models.Period) (models.DayOfWeek, bool) {
		return p.DayOfWeek, p.ClassID == classID && p.DayOfWeek.Valid()
	})
	days := make([]TimetableDay, 0, len(groups))
	for _, g := range groups {
		members := append([]models.Period(nil), g.Members...)
		sort.SliceStable(members, func(i, j int) bool { return members[i].PeriodNumber < members[j].PeriodNumber })
		days = append(days, TimetableDay{Day: g.Key, Editable: g.Key.Editable(), Periods: members})
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day.Index() < days[j].Day.Index() })
	return days
}

// ReconcileAttendance starts every fetched student at absent with no remarks and overlays the
// persisted marks. Records for students outside the list are ignored.
func ReconcileAttendance(students []models.Student, records []models.AttendanceRecord) map[int64]models.AttendanceState {
	sheet := make(map[int64]models.AttendanceState, len(students))
	for _, s := range students {
		sheet[s.ID] = models.AttendanceState{Present: false, Remarks: ""}
	}
	for _, rec := range records {
		if _, ok := sheet[rec.StudentID]; !ok {
			continue
		}
		sheet[rec.StudentID] = models.AttendanceState{Present: rec.Present, Remarks: rec.Remarks}
	}
	return sheet
}
