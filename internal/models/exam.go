package models

// Exam is an assessment of a course. Detail responses embed the course and
// the students sitting the exam.
type Exam struct {
	ID          int64     `json:"id,omitempty"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	ExamDate    string    `json:"exam_date,omitempty"`
	MaxMark     Text      `json:"max_mark"`
	PassingMark Text      `json:"passing_mark"`
	Course      *Course   `json:"course,omitempty"`
	Students    []Student `json:"students,omitempty"`
}

func (e Exam) RowKey() string  { return formatID(e.ID) }
func (e Exam) ServerID() int64 { return e.ID }

func (e Exam) SearchFields() []string {
	fields := []string{e.Title, e.ExamDate}
	if e.Course != nil {
		fields = append(fields, e.Course.Title)
	}
	return fields
}

func (e Exam) Cells() map[string]string {
	return map[string]string{
		"id":           formatID(e.ID),
		"course_id":    formatID(e.CourseID),
		"title":        e.Title,
		"exam_date":    e.ExamDate,
		"max_mark":     e.MaxMark.String(),
		"passing_mark": e.PassingMark.String(),
	}
}

// StudentExam is a student's mark in an exam.
type StudentExam struct {
	ID          int64  `json:"id,omitempty"`
	ExamID      int64  `json:"exam_id"`
	StudentID   int64  `json:"student_id"`
	StudentMark Text   `json:"student_mark"`
	StudentName string `json:"student_name,omitempty"`
}

// ExamResults is the GET /stdExam/exam/{id} response.
type ExamResults struct {
	ExamID       Text              `json:"exam_id" validate:"required"`
	ExamTitle    string            `json:"exam_title"`
	CourseTitle  string            `json:"course_title"`
	MaxMark      Text              `json:"max_mark"`
	PassingMark  Text              `json:"passing_mark"`
	StudentExams []ExamResultEntry `json:"student_exams" validate:"dive"`
}

// ExamResultEntry is one student's mark nested under ExamResults.
type ExamResultEntry struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
	StudentMark Text   `json:"student_mark"`
}

// StudentExamRow is the table row of the student-exams screen.
type StudentExamRow struct {
	ID          string  `json:"id"`
	RecordID    int64   `json:"record_id,omitempty"`
	ExamID      int64   `json:"exam_id"`
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name,omitempty"`
	StudentMark float64 `json:"student_mark"`
	ExamTitle   string  `json:"exam_title,omitempty"`
	MaxMark     float64 `json:"max_mark,omitempty"`
	PassingMark float64 `json:"passing_mark,omitempty"`
}

// Passed reports whether the mark reaches the passing mark. Rows without a
// known passing mark never pass.
func (r StudentExamRow) Passed() bool {
	return r.PassingMark > 0 && r.StudentMark >= r.PassingMark
}

func (r StudentExamRow) RowKey() string  { return r.ID }
func (r StudentExamRow) ServerID() int64 { return r.RecordID }

func (r StudentExamRow) SearchFields() []string {
	return []string{formatID(r.ExamID), formatID(r.StudentID), r.StudentName, r.ExamTitle}
}

func (r StudentExamRow) Cells() map[string]string {
	return map[string]string{
		"exam_id":      formatID(r.ExamID),
		"student_id":   formatID(r.StudentID),
		"student_name": r.StudentName,
		"student_mark": formatFloat(r.StudentMark),
	}
}
