package models

// Lesson is a dated session of a course.
type Lesson struct {
	ID          int64  `json:"id,omitempty"`
	CourseID    int64  `json:"course_id"`
	LessonTitle string `json:"lesson_title"`
	LessonDate  string `json:"lesson_date"`
	Description string `json:"description,omitempty"`
}

// LessonOptions turns lessons into form options.
func LessonOptions(lessons []Lesson) []Option {
	out := make([]Option, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, Option{Value: formatID(l.ID), Label: l.LessonTitle})
	}
	return out
}

// CourseLessons is the GET /lessons/course/{id} response.
type CourseLessons struct {
	CourseID    Text          `json:"course_id" validate:"required"`
	CourseTitle string        `json:"course_title"`
	Lessons     []LessonEntry `json:"lessons" validate:"dive"`
}

// LessonEntry is one lesson nested under CourseLessons.
type LessonEntry struct {
	ID          int64  `json:"id" validate:"required"`
	LessonTitle string `json:"lesson_title"`
	LessonDate  string `json:"lesson_date"`
	Description string `json:"description"`
}

// LessonRow is the table row of the lessons screen.
type LessonRow struct {
	ID          string `json:"id"`
	RecordID    int64  `json:"record_id,omitempty"`
	CourseID    int64  `json:"course_id"`
	CourseTitle string `json:"course_title,omitempty"`
	LessonTitle string `json:"lesson_title"`
	LessonDate  string `json:"lesson_date"`
	Description string `json:"description,omitempty"`
}

func (r LessonRow) RowKey() string  { return r.ID }
func (r LessonRow) ServerID() int64 { return r.RecordID }

func (r LessonRow) SearchFields() []string {
	return []string{r.LessonTitle, r.LessonDate, r.CourseTitle}
}

func (r LessonRow) Cells() map[string]string {
	return map[string]string{
		"id":           r.ID,
		"course_title": r.CourseTitle,
		"lesson_title": r.LessonTitle,
		"lesson_date":  r.LessonDate,
	}
}
