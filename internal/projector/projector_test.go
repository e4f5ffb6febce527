package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
)

type countingRecorder struct {
	fields map[string]int
}

func (c *countingRecorder) ObserveProjectionFallback(field string) {
	if c.fields == nil {
		c.fields = map[string]int{}
	}
	c.fields[field]++
}

func TestRecitationsFlattenInLessonOrder(t *testing.T) {
	res := &models.CourseRecitations{
		CourseID:    "4",
		CourseTitle: "Hifz",
		RecitationsByLesson: []models.LessonRecitations{
			{
				LessonID:    10,
				LessonTitle: "Al-Mulk",
				LessonDate:  "2024-01-01",
				Recitations: []models.RecitationEntry{
					{ID: 100, StudentID: 1, StudentName: "Aisha", CurrentJuz: "Juz 29", CurrentJuzPage: "3", RecitationPerPage: []models.Text{"1", "2"}, Homework: []models.Text{"4"}},
					{ID: 101, StudentID: 2, StudentName: "Omar", CurrentJuz: "Juz 30", CurrentJuzPage: "7"},
				},
			},
			{
				LessonID:    11,
				LessonTitle: "An-Naba",
				Recitations: []models.RecitationEntry{
					{ID: 102, StudentID: 1, StudentName: "Aisha", CurrentJuz: "Juz 30", CurrentJuzPage: "1"},
				},
			},
		},
	}

	rows := New(nil, nil).Recitations(res)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"10-1", "10-2", "11-1"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, int64(4), rows[0].CourseID)
	assert.Equal(t, "Al-Mulk", rows[0].LessonTitle)
	assert.Equal(t, 29, rows[0].CurrentJuz)
	assert.Equal(t, 3, rows[0].CurrentJuzPage)
	assert.Equal(t, []int{1, 2}, rows[0].RecitationPerPage)
	assert.Equal(t, []int{4}, rows[0].Homework)
	assert.Equal(t, int64(102), rows[2].RecordID)

	assert.NotNil(t, rows[1].RecitationPerPage)
	assert.NotNil(t, rows[1].Homework)
	assert.Empty(t, rows[1].Homework)
}

func TestRecitationKeysStayUniqueOnRepeatedStudent(t *testing.T) {
	res := &models.CourseRecitations{
		CourseID: "1",
		RecitationsByLesson: []models.LessonRecitations{{
			LessonID: 5,
			Recitations: []models.RecitationEntry{
				{ID: 1, StudentID: 9},
				{ID: 2, StudentID: 9},
			},
		}},
	}

	rows := New(nil, nil).Recitations(res)
	require.Len(t, rows, 2)
	assert.Equal(t, "5-9", rows[0].ID)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}

func TestRecitationsNilAndEmptyInputs(t *testing.T) {
	p := New(nil, nil)
	assert.NotNil(t, p.Recitations(nil))
	assert.Empty(t, p.Recitations(&models.CourseRecitations{CourseID: "1"}))
	assert.NotNil(t, p.RecitationRecords(nil))
	assert.NotNil(t, p.ExamResults(nil))
	assert.NotNil(t, p.Attendance(nil))
	assert.NotNil(t, p.Lessons(nil))
}

func TestParseJuz(t *testing.T) {
	cases := map[string]int{
		"Juz 5":   5,
		"Juz 30":  30,
		"12":      12,
		" Juz 7 ": 7,
		"Juz":     1,
		"Juz x":   1,
		"":        1,
		"Juz 0":   1,
		"Juz -3":  1,
		"banana":  1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseJuz(raw), "ParseJuz(%q)", raw)
	}
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"4":     4,
		"15abc": 15,
		"abc":   1,
		"":      1,
		"0":     1,
		"-2":    1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "ParsePage(%q)", raw)
	}
}

func TestFallbacksAreRecordedNotReturned(t *testing.T) {
	recorder := &countingRecorder{}
	records := []models.RecitationRecord{{
		ID:                1,
		StudentID:         2,
		CourseID:          "3",
		LessonID:          4,
		CurrentJuz:        "unknown",
		CurrentJuzPage:    "",
		RecitationPerPage: []models.Text{"x", "2"},
	}}

	rows := New(nil, recorder).RecitationRecords(records)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CurrentJuz)
	assert.Equal(t, 1, rows[0].CurrentJuzPage)
	assert.Equal(t, []int{1, 2}, rows[0].RecitationPerPage)
	assert.Equal(t, map[string]int{"current_juz": 1, "current_juz_page": 1, "recitation_per_page": 1}, recorder.fields)
}

func TestExamResultsCarryMarkBounds(t *testing.T) {
	res := &models.ExamResults{
		ExamID:      "8",
		ExamTitle:   "Final",
		MaxMark:     "100",
		PassingMark: "60",
		StudentExams: []models.ExamResultEntry{
			{ID: 1, StudentID: 3, StudentName: "Aisha", StudentMark: "75.5"},
			{ID: 2, StudentID: 4, StudentName: "Omar", StudentMark: "40"},
			{ID: 0, StudentID: 5, StudentName: "Zaid"},
		},
	}

	rows := New(nil, nil).ExamResults(res)
	require.Len(t, rows, 3)
	assert.Equal(t, "8-3", rows[0].ID)
	assert.Equal(t, 75.5, rows[0].StudentMark)
	assert.True(t, rows[0].Passed())
	assert.False(t, rows[1].Passed())
	assert.Equal(t, float64(100), rows[2].MaxMark)
	assert.Zero(t, rows[2].RecordID)
}

func TestAttendanceFlattenAndLessons(t *testing.T) {
	p := New(nil, nil)
	attendance := p.Attendance(&models.CourseAttendance{
		CourseID: "2",
		AttendanceByLesson: []models.LessonAttendance{
			{LessonID: 1, LessonTitle: "L1", Attendances: []models.AttendanceEntry{{ID: 7, StudentID: 3, Status: "present"}}},
			{LessonID: 2, LessonTitle: "L2", Attendances: []models.AttendanceEntry{{ID: 8, StudentID: 3, Status: "absent"}}},
		},
	})
	require.Len(t, attendance, 2)
	assert.Equal(t, "1-3", attendance[0].ID)
	assert.Equal(t, "L2", attendance[1].LessonTitle)
	assert.Equal(t, int64(2), attendance[1].CourseID)

	lessons := p.Lessons(&models.CourseLessons{
		CourseID:    "2",
		CourseTitle: "Tajweed",
		Lessons:     []models.LessonEntry{{ID: 1, LessonTitle: "Intro"}, {ID: 2, LessonTitle: "Makharij"}},
	})
	require.Len(t, lessons, 2)
	assert.Equal(t, "2-2", lessons[1].ID)
	assert.Equal(t, "Tajweed", lessons[0].CourseTitle)
	assert.Equal(t, int64(2), lessons[1].RecordID)

	flat := p.LessonRecords([]models.Lesson{{ID: 3, CourseID: 9, LessonTitle: "Flat"}})
	assert.Equal(t, "9-3", flat[0].ID)
}

func TestStudentExamsAndAttendanceRecords(t *testing.T) {
	p := New(nil, nil)
	marks := p.StudentExams([]models.StudentExam{{ID: 1, ExamID: 2, StudentID: 3, StudentMark: "88"}})
	require.Len(t, marks, 1)
	assert.Equal(t, "2-3", marks[0].ID)
	assert.Equal(t, float64(88), marks[0].StudentMark)

	attendance := p.AttendanceRecords([]models.Attendance{{ID: 4, LessonID: 5, StudentID: 6, Status: "late"}})
	require.Len(t, attendance, 1)
	assert.Equal(t, "5-6", attendance[0].ID)
	assert.Equal(t, int64(4), attendance[0].ServerID())
}
