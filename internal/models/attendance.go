package models

// Attendance is a student's presence mark for one lesson.
type Attendance struct {
	ID          int64  `json:"id,omitempty"`
	StudentID   int64  `json:"student_id"`
	LessonID    int64  `json:"lesson_id"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
	StudentName string `json:"student_name,omitempty"`
	LessonTitle string `json:"lesson_title,omitempty"`
	LessonDate  string `json:"lesson_date,omitempty"`
}

// CourseAttendance is the GET /atten/course/{id} response.
type CourseAttendance struct {
	CourseID           Text               `json:"course_id" validate:"required"`
	CourseTitle        string             `json:"course_title"`
	AttendanceByLesson []LessonAttendance `json:"attendance_by_lesson" validate:"dive"`
}

// LessonAttendance groups attendance marks under one lesson.
type LessonAttendance struct {
	LessonID    int64             `json:"lesson_id" validate:"required"`
	LessonTitle string            `json:"lesson_title"`
	LessonDate  string            `json:"lesson_date"`
	Attendances []AttendanceEntry `json:"attendances" validate:"dive"`
}

// AttendanceEntry is one student's mark nested under a lesson.
type AttendanceEntry struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// AttendanceRow is the table row of the attendance screen.
type AttendanceRow struct {
	ID          string `json:"id"`
	RecordID    int64  `json:"record_id,omitempty"`
	CourseID    int64  `json:"course_id,omitempty"`
	LessonID    int64  `json:"lesson_id"`
	StudentID   int64  `json:"student_id"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	StudentName string `json:"student_name"`
	LessonTitle string `json:"lesson_title"`
	LessonDate  string `json:"lesson_date"`
}

func (r AttendanceRow) RowKey() string  { return r.ID }
func (r AttendanceRow) ServerID() int64 { return r.RecordID }

func (r AttendanceRow) SearchFields() []string {
	return []string{r.StudentName, r.LessonTitle, r.Status}
}

func (r AttendanceRow) Cells() map[string]string {
	return map[string]string{
		"student_name": r.StudentName,
		"lesson_title": r.LessonTitle,
		"lesson_date":  r.LessonDate,
		"status":       r.Status,
		"notes":        r.Notes,
	}
}
