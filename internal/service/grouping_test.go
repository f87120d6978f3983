package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

func examResult(id int64, studentID int64, name, class string) models.ExamResult {
	r := models.ExamResult{ID: id, StudentName: name, ClassName: class}
	if studentID != 0 {
		r.Student = &models.StudentSummary{ID: studentID}
	}
	return r
}

func TestGroupByKeepsFirstSeenOrder(t *testing.T) {
	type row struct {
		id   int
		name string
	}
	groups := GroupBy([]row{{1, "A"}, {2, "B"}, {1, "A"}, {0, ""}}, func(r row) (int, bool) {
		return r.id, r.id != 0
	})
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Key)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, 2, groups[1].Key)
	assert.Len(t, groups[1].Members, 1)
}

func TestGroupExamResultsByStudent(t *testing.T) {
	results := []models.ExamResult{
		examResult(1, 1, "A", "Grade 10"),
		examResult(2, 1, "A", "Grade 10"),
		examResult(3, 2, "B", "Grade 11"),
	}
	groups := GroupExamResultsByStudent(results, nil)
	require.Len(t, groups, 2)
	assert.Equal(t, "id:1", groups[0].Key)
	assert.Len(t, groups[0].Results, 2)
	require.NotNil(t, groups[0].StudentID)
	assert.Equal(t, int64(1), *groups[0].StudentID)
	assert.Equal(t, "Grade 10", groups[0].ClassName)
	assert.Len(t, groups[1].Results, 1)
	assert.False(t, groups[1].KeyedByName)
}

func TestGroupExamResultsFallsBackToName(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	results := []models.ExamResult{
		examResult(1, 0, "Sam Lee", "Grade 9"),
		examResult(2, 0, "Sam Lee", "Grade 10"),
		examResult(3, 0, "  ", "Grade 10"),
	}
	groups := GroupExamResultsByStudent(results, zap.New(core))
	require.Len(t, groups, 1)
	assert.Equal(t, "name:Sam Lee", groups[0].Key)
	assert.True(t, groups[0].KeyedByName)
	assert.Nil(t, groups[0].StudentID)
	assert.Len(t, groups[0].Results, 2)
	assert.Equal(t, 1, logs.Len())
}

func TestDayOfWeekAndPeriodLookup(t *testing.T) {
	monday, err := models.ParseDate("2024-06-10")
	require.NoError(t, err)
	sunday, err := models.ParseDate("2024-06-09")
	require.NoError(t, err)
	assert.Equal(t, models.Monday, models.DayOfWeekFor(monday))
	assert.Equal(t, models.Sunday, models.DayOfWeekFor(sunday))

	periods := []models.Period{
		{ID: 1, ClassID: 5, DayOfWeek: models.Monday},
		{ID: 2, ClassID: 5, DayOfWeek: models.Tuesday},
		{ID: 3, ClassID: 6, DayOfWeek: models.Monday},
		{ID: 4, ClassID: 5, DayOfWeek: models.Monday},
	}
	got := PeriodsForClassDay(periods, 5, models.DayOfWeekFor(monday))
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Empty(t, PeriodsForClassDay(periods, 5, models.DayOfWeekFor(sunday)))
}

func TestTimetableOrdersDaysAndPeriods(t *testing.T) {
	periods := []models.Period{
		{ID: 1, ClassID: 5, DayOfWeek: models.Wednesday, PeriodNumber: 2},
		{ID: 2, ClassID: 5, DayOfWeek: models.Monday, PeriodNumber: 3},
		{ID: 3, ClassID: 5, DayOfWeek: models.Monday, PeriodNumber: 1},
		{ID: 4, ClassID: 5, DayOfWeek: models.Saturday, PeriodNumber: 1},
		{ID: 5, ClassID: 9, DayOfWeek: models.Monday, PeriodNumber: 1},
		{ID: 6, ClassID: 5, DayOfWeek: "HOLIDAY", PeriodNumber: 1},
	}
	days := Timetable(periods, 5)
	require.Len(t, days, 3)
	assert.Equal(t, models.Monday, days[0].Day)
	assert.True(t, days[0].Editable)
	assert.Equal(t, []int64{3, 2}, []int64{days[0].Periods[0].ID, days[0].Periods[1].ID})
	assert.Equal(t, models.Wednesday, days[1].Day)
	assert.Equal(t, models.Saturday, days[2].Day)
	assert.False(t, days[2].Editable)
}

func TestReconcileAttendance(t *testing.T) {
	students := []models.Student{{ID: 1}, {ID: 2}}
	records := []models.AttendanceRecord{
		{StudentID: 1, Present: true},
		{StudentID: 99, Present: true, Remarks: "not in class"},
	}
	sheet := ReconcileAttendance(students, records)
	assert.Equal(t, map[int64]models.AttendanceState{
		1: {Present: true, Remarks: ""},
		2: {Present: false, Remarks: ""},
	}, sheet)
}
