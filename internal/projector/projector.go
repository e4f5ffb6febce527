// Package projector flattens the nested relational responses of the course
// API into table rows. Projection never fails: unreadable numeric text falls
// back to a default and is reported through the FallbackRecorder.
package projector

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
)

// FallbackRecorder counts values replaced by their default during projection.
type FallbackRecorder interface {
	ObserveProjectionFallback(field string)
}

// Projector turns relational schemas into rows.
type Projector struct {
	logger   *zap.Logger
	recorder FallbackRecorder
}

// New constructs a Projector. Both arguments are optional.
func New(logger *zap.Logger, recorder FallbackRecorder) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger, recorder: recorder}
}

// Recitations flattens course → lesson → recitation into one row per
// recitation, in lesson order then recitation order.
func (p *Projector) Recitations(res *models.CourseRecitations) []models.RecitationRow {
	rows := make([]models.RecitationRow, 0)
	if res == nil {
		return rows
	}
	courseID := p.id("course_id", res.CourseID)
	keys := newKeySet()
	for _, lesson := range res.RecitationsByLesson {
		for _, rec := range lesson.Recitations {
			rows = append(rows, models.RecitationRow{
				ID:                   keys.next(lesson.LessonID, rec.StudentID),
				RecordID:             rec.ID,
				StudentID:            rec.StudentID,
				CourseID:             courseID,
				LessonID:             lesson.LessonID,
				RecitationPerPage:    p.pages("recitation_per_page", rec.RecitationPerPage),
				RecitationEvaluation: rec.RecitationEvaluation,
				CurrentJuz:           p.juz(rec.CurrentJuz),
				CurrentJuzPage:       p.page("current_juz_page", rec.CurrentJuzPage),
				RecitationNotes:      rec.RecitationNotes,
				Homework:             p.pages("homework", rec.Homework),
				StudentName:          rec.StudentName,
				LessonTitle:          lesson.LessonTitle,
				LessonDate:           lesson.LessonDate,
			})
		}
	}
	return rows
}

// RecitationRecords projects the flat, unscoped recitation list.
func (p *Projector) RecitationRecords(records []models.RecitationRecord) []models.RecitationRow {
	rows := make([]models.RecitationRow, 0, len(records))
	keys := newKeySet()
	for _, rec := range records {
		rows = append(rows, models.RecitationRow{
			ID:                   keys.next(rec.LessonID, rec.StudentID),
			RecordID:             rec.ID,
			StudentID:            rec.StudentID,
			CourseID:             p.id("course_id", rec.CourseID),
			LessonID:             rec.LessonID,
			RecitationPerPage:    p.pages("recitation_per_page", rec.RecitationPerPage),
			RecitationEvaluation: rec.RecitationEvaluation,
			CurrentJuz:           p.juz(rec.CurrentJuz),
			CurrentJuzPage:       p.page("current_juz_page", rec.CurrentJuzPage),
			RecitationNotes:      rec.RecitationNotes,
			Homework:             p.pages("homework", rec.Homework),
			StudentName:          rec.StudentName,
			LessonTitle:          rec.LessonTitle,
			LessonDate:           rec.LessonDate,
		})
	}
	return rows
}

// Attendance flattens course → lesson → attendance mark.
func (p *Projector) Attendance(res *models.CourseAttendance) []models.AttendanceRow {
	rows := make([]models.AttendanceRow, 0)
	if res == nil {
		return rows
	}
	courseID := p.id("course_id", res.CourseID)
	keys := newKeySet()
	for _, lesson := range res.AttendanceByLesson {
		for _, mark := range lesson.Attendances {
			rows = append(rows, models.AttendanceRow{
				ID:          keys.next(lesson.LessonID, mark.StudentID),
				RecordID:    mark.ID,
				CourseID:    courseID,
				LessonID:    lesson.LessonID,
				StudentID:   mark.StudentID,
				Status:      mark.Status,
				Notes:       mark.Notes,
				StudentName: mark.StudentName,
				LessonTitle: lesson.LessonTitle,
				LessonDate:  lesson.LessonDate,
			})
		}
	}
	return rows
}

// AttendanceRecords projects the flat, unscoped attendance list.
func (p *Projector) AttendanceRecords(records []models.Attendance) []models.AttendanceRow {
	rows := make([]models.AttendanceRow, 0, len(records))
	keys := newKeySet()
	for _, mark := range records {
		rows = append(rows, models.AttendanceRow{
			ID:          keys.next(mark.LessonID, mark.StudentID),
			RecordID:    mark.ID,
			LessonID:    mark.LessonID,
			StudentID:   mark.StudentID,
			Status:      mark.Status,
			Notes:       mark.Notes,
			StudentName: mark.StudentName,
			LessonTitle: mark.LessonTitle,
			LessonDate:  mark.LessonDate,
		})
	}
	return rows
}

// ExamResults flattens exam → student mark, copying the exam's mark bounds
// onto every row.
func (p *Projector) ExamResults(res *models.ExamResults) []models.StudentExamRow {
	rows := make([]models.StudentExamRow, 0)
	if res == nil {
		return rows
	}
	examID := p.id("exam_id", res.ExamID)
	maxMark := p.mark("max_mark", res.MaxMark)
	passingMark := p.mark("passing_mark", res.PassingMark)
	keys := newKeySet()
	for _, entry := range res.StudentExams {
		rows = append(rows, models.StudentExamRow{
			ID:          keys.next(examID, entry.StudentID),
			RecordID:    entry.ID,
			ExamID:      examID,
			StudentID:   entry.StudentID,
			StudentName: entry.StudentName,
			StudentMark: p.mark("student_mark", entry.StudentMark),
			ExamTitle:   res.ExamTitle,
			MaxMark:     maxMark,
			PassingMark: passingMark,
		})
	}
	return rows
}

// StudentExams projects the flat, unscoped mark list.
func (p *Projector) StudentExams(records []models.StudentExam) []models.StudentExamRow {
	rows := make([]models.StudentExamRow, 0, len(records))
	keys := newKeySet()
	for _, rec := range records {
		rows = append(rows, models.StudentExamRow{
			ID:          keys.next(rec.ExamID, rec.StudentID),
			RecordID:    rec.ID,
			ExamID:      rec.ExamID,
			StudentID:   rec.StudentID,
			StudentName: rec.StudentName,
			StudentMark: p.mark("student_mark", rec.StudentMark),
		})
	}
	return rows
}

// Lessons flattens course → lesson.
func (p *Projector) Lessons(res *models.CourseLessons) []models.LessonRow {
	rows := make([]models.LessonRow, 0)
	if res == nil {
		return rows
	}
	courseID := p.id("course_id", res.CourseID)
	keys := newKeySet()
	for _, lesson := range res.Lessons {
		rows = append(rows, models.LessonRow{
			ID:          keys.next(courseID, lesson.ID),
			RecordID:    lesson.ID,
			CourseID:    courseID,
			CourseTitle: res.CourseTitle,
			LessonTitle: lesson.LessonTitle,
			LessonDate:  lesson.LessonDate,
			Description: lesson.Description,
		})
	}
	return rows
}

// LessonRecords projects the flat, unscoped lesson list.
func (p *Projector) LessonRecords(records []models.Lesson) []models.LessonRow {
	rows := make([]models.LessonRow, 0, len(records))
	keys := newKeySet()
	for _, lesson := range records {
		rows = append(rows, models.LessonRow{
			ID:          keys.next(lesson.CourseID, lesson.ID),
			RecordID:    lesson.ID,
			CourseID:    lesson.CourseID,
			LessonTitle: lesson.LessonTitle,
			LessonDate:  lesson.LessonDate,
			Description: lesson.Description,
		})
	}
	return rows
}

func (p *Projector) juz(raw models.Text) int {
	n, ok := parseJuz(raw.String())
	if !ok {
		p.fallback("current_juz", raw.String(), n)
	}
	return n
}

func (p *Projector) page(field string, raw models.Text) int {
	n, ok := parsePage(raw.String())
	if !ok {
		p.fallback(field, raw.String(), n)
	}
	return n
}

func (p *Projector) pages(field string, raw []models.Text) []int {
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		out = append(out, p.page(field, v))
	}
	return out
}

// mark reads a decimal mark; blank marks are zero without a fallback.
func (p *Projector) mark(field string, raw models.Text) float64 {
	if raw.String() == "" {
		return 0
	}
	f, ok := raw.Float()
	if !ok {
		p.fallback(field, raw.String(), 0)
		return 0
	}
	return f
}

// id reads a parent identifier the API may send as text.
func (p *Projector) id(field string, raw models.Text) int64 {
	n, ok := raw.Int64()
	if !ok {
		p.fallback(field, raw.String(), 0)
		return 0
	}
	return n
}

func (p *Projector) fallback(field, raw string, value interface{}) {
	p.logger.Debug("projection fallback",
		zap.String("field", field),
		zap.String("raw", raw),
		zap.Any("value", value),
	)
	if p.recorder != nil {
		p.recorder.ObserveProjectionFallback(field)
	}
}

// keySet issues "<parent>-<child>" keys, suffixing repeats so keys stay
// unique within one projection.
type keySet map[string]int

func newKeySet() keySet {
	return keySet{}
}

func (k keySet) next(parentID, childID int64) string {
	key := strconv.FormatInt(parentID, 10) + "-" + strconv.FormatInt(childID, 10)
	k[key]++
	if n := k[key]; n > 1 {
		return fmt.Sprintf("%s-%d", key, n)
	}
	return key
}
