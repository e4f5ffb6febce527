package models

import "strconv"

// Recitation evaluation grades, best first.
var RecitationEvaluations = []string{"Excellent", "Good", "Fair", "Poor", "So Bad"}

// MaxRecitationPages bounds the page and homework pickers of the recitation form.
const MaxRecitationPages = 20

// RecitationRecord is a recitation as returned by GET /recitation and the
// store/update endpoints.
type RecitationRecord struct {
	ID                   int64  `json:"id,omitempty"`
	StudentID            int64  `json:"student_id"`
	CourseID             Text   `json:"course_id"`
	LessonID             int64  `json:"lesson_id"`
	RecitationPerPage    []Text `json:"recitation_per_page"`
	RecitationEvaluation string `json:"recitation_evaluation"`
	CurrentJuz           Text   `json:"current_juz"`
	CurrentJuzPage       Text   `json:"current_juz_page"`
	RecitationNotes      string `json:"recitation_notes"`
	Homework             []Text `json:"homework"`
	StudentName          string `json:"student_name,omitempty"`
	LessonTitle          string `json:"lesson_title,omitempty"`
	LessonDate           string `json:"lesson_date,omitempty"`
}

// CourseRecitations is the GET /recitation/course/{id} response: a course's
// lessons, each with the recitations heard in it.
type CourseRecitations struct {
	CourseID            Text                `json:"course_id" validate:"required"`
	CourseTitle         string              `json:"course_title"`
	RecitationsByLesson []LessonRecitations `json:"recitations_by_lesson" validate:"dive"`
}

// LessonRecitations groups recitations under one lesson.
type LessonRecitations struct {
	LessonID    int64             `json:"lesson_id" validate:"required"`
	LessonTitle string            `json:"lesson_title"`
	LessonDate  string            `json:"lesson_date"`
	Recitations []RecitationEntry `json:"recitations" validate:"dive"`
}

// RecitationEntry is one student's recitation nested under a lesson.
type RecitationEntry struct {
	ID                   int64  `json:"id"`
	StudentID            int64  `json:"student_id" validate:"required"`
	StudentName          string `json:"student_name"`
	RecitationPerPage    []Text `json:"recitation_per_page"`
	RecitationEvaluation string `json:"recitation_evaluation"`
	CurrentJuz           Text   `json:"current_juz"`
	CurrentJuzPage       Text   `json:"current_juz_page"`
	RecitationNotes      string `json:"recitation_notes"`
	Homework             []Text `json:"homework"`
}

// RecitationRow is the table row of the recitation screen.
type RecitationRow struct {
	ID                   string `json:"id"`
	RecordID             int64  `json:"record_id,omitempty"`
	StudentID            int64  `json:"student_id"`
	CourseID             int64  `json:"course_id"`
	LessonID             int64  `json:"lesson_id"`
	RecitationPerPage    []int  `json:"recitation_per_page"`
	RecitationEvaluation string `json:"recitation_evaluation"`
	CurrentJuz           int    `json:"current_juz"`
	CurrentJuzPage       int    `json:"current_juz_page"`
	RecitationNotes      string `json:"recitation_notes"`
	Homework             []int  `json:"homework"`
	StudentName          string `json:"student_name"`
	LessonTitle          string `json:"lesson_title"`
	LessonDate           string `json:"lesson_date"`
}

func (r RecitationRow) RowKey() string  { return r.ID }
func (r RecitationRow) ServerID() int64 { return r.RecordID }

func (r RecitationRow) SearchFields() []string {
	return []string{r.StudentName, r.LessonTitle, r.RecitationEvaluation}
}

func (r RecitationRow) Cells() map[string]string {
	return map[string]string{
		"student_name":          r.StudentName,
		"lesson_title":          r.LessonTitle,
		"lesson_date":           r.LessonDate,
		"current_juz":           strconv.Itoa(r.CurrentJuz),
		"current_juz_page":      strconv.Itoa(r.CurrentJuzPage),
		"recitation_evaluation": r.RecitationEvaluation,
		"recitation_per_page":   joinInts(r.RecitationPerPage),
		"homework":              joinInts(r.Homework),
		"recitation_notes":      r.RecitationNotes,
	}
}

// EvaluationOptions lists the recitation grades as form options.
func EvaluationOptions() []Option {
	out := make([]Option, 0, len(RecitationEvaluations))
	for _, e := range RecitationEvaluations {
		out = append(out, Option{Value: e, Label: e})
	}
	return out
}
