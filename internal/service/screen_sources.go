package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/yakhtimoon-console/internal/coordinator"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/projector"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

type entityStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, payload interface{}) (*T, error)
	Update(ctx context.Context, id int64, payload interface{}) (*T, error)
	Delete(ctx context.Context, id int64) error
}

type courseStore interface {
	List(ctx context.Context) ([]models.Course, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
}

type examStore interface {
	List(ctx context.Context) ([]models.Exam, error)
	Get(ctx context.Context, id int64) (*models.Exam, error)
}

type recitationStore interface {
	entityStore[models.RecitationRecord]
	ListByCourse(ctx context.Context, courseID int64) (*models.CourseRecitations, error)
}

type attendanceStore interface {
	entityStore[models.Attendance]
	ListByCourse(ctx context.Context, courseID int64) (*models.CourseAttendance, error)
}

type lessonStore interface {
	entityStore[models.Lesson]
	ListByCourse(ctx context.Context, courseID int64) (*models.CourseLessons, error)
}

type studentExamStore interface {
	entityStore[models.StudentExam]
	ListByExam(ctx context.Context, examID int64) (*models.ExamResults, error)
}

// mutator forwards create/update/delete to a store, dropping the echoed record.
type mutator[T any] struct {
	store entityStore[T]
}

func (m mutator[T]) Create(ctx context.Context, payload interface{}) error {
	_, err := m.store.Create(ctx, payload)
	return err
}

func (m mutator[T]) Update(ctx context.Context, id int64, payload interface{}) error {
	_, err := m.store.Update(ctx, id, payload)
	return err
}

func (m mutator[T]) Delete(ctx context.Context, id int64) error {
	return m.store.Delete(ctx, id)
}

// EntitySource serves an unscoped screen whose rows are the entities themselves.
type EntitySource[T models.Row] struct {
	mutator[T]
}

// NewEntitySource constructs an EntitySource.
func NewEntitySource[T models.Row](store entityStore[T]) *EntitySource[T] {
	return &EntitySource[T]{mutator: mutator[T]{store: store}}
}

// Fetch lists every record of the entity.
func (s *EntitySource[T]) Fetch(ctx context.Context, filter *coordinator.Filter) ([]T, error) {
	if filter != nil {
		return nil, unsupported(filter)
	}
	return s.store.List(ctx)
}

// RecitationSource serves the recitation screen, scoped by Tahfeez course.
type RecitationSource struct {
	mutator[models.RecitationRecord]
	recitations recitationStore
	courses     courseStore
	projector   *projector.Projector
}

// NewRecitationSource constructs a RecitationSource.
func NewRecitationSource(recitations recitationStore, courses courseStore, p *projector.Projector) *RecitationSource {
	return &RecitationSource{
		mutator:     mutator[models.RecitationRecord]{store: recitations},
		recitations: recitations,
		courses:     courses,
		projector:   p,
	}
}

// Fetch lists every recitation, or the recitations of one course.
func (s *RecitationSource) Fetch(ctx context.Context, filter *coordinator.Filter) ([]models.RecitationRow, error) {
	if filter == nil {
		records, err := s.recitations.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.projector.RecitationRecords(records), nil
	}
	if filter.Relation != models.RelationCourse {
		return nil, unsupported(filter)
	}
	res, err := s.recitations.ListByCourse(ctx, filter.ParentID)
	if err != nil {
		return nil, err
	}
	return s.projector.Recitations(res), nil
}

// FilterOptions offers the Tahfeez courses only.
func (s *RecitationSource) FilterOptions(ctx context.Context) (coordinator.FilterChoices, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return coordinator.FilterChoices{}, err
	}
	options := make([]models.Option, 0, len(courses))
	for _, course := range courses {
		if course.IsTahfeez() {
			options = append(options, courseOption(course))
		}
	}
	return coordinator.FilterChoices{Relation: models.RelationCourse, Options: options}, nil
}

// FormOptions offers the grades and page pickers, plus the students and
// lessons of the filtered course.
func (s *RecitationSource) FormOptions(ctx context.Context, filter *coordinator.Filter) (coordinator.FormOptions, error) {
	pages := numberOptions(models.MaxRecitationPages)
	opts := coordinator.FormOptions{
		Options: map[string][]models.Option{
			"recitation_evaluation": models.EvaluationOptions(),
			"recitation_per_page":   pages,
			"homework":              pages,
		},
	}
	if filter == nil || filter.Relation != models.RelationCourse {
		return opts, nil
	}
	course, err := s.courses.Get(ctx, filter.ParentID)
	if err != nil {
		return opts, err
	}
	opts.Options["student_id"] = models.StudentOptions(course.Students)
	opts.Options["lesson_id"] = models.LessonOptions(course.Lessons)
	opts.Meta = courseMeta(course)
	return opts, nil
}

// AttendanceSource serves the attendance screen, scoped by course.
type AttendanceSource struct {
	mutator[models.Attendance]
	attendance attendanceStore
	courses    courseStore
	projector  *projector.Projector
}

// NewAttendanceSource constructs an AttendanceSource.
func NewAttendanceSource(attendance attendanceStore, courses courseStore, p *projector.Projector) *AttendanceSource {
	return &AttendanceSource{
		mutator:    mutator[models.Attendance]{store: attendance},
		attendance: attendance,
		courses:    courses,
		projector:  p,
	}
}

// Fetch lists every attendance mark, or the marks of one course.
func (s *AttendanceSource) Fetch(ctx context.Context, filter *coordinator.Filter) ([]models.AttendanceRow, error) {
	if filter == nil {
		records, err := s.attendance.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.projector.AttendanceRecords(records), nil
	}
	if filter.Relation != models.RelationCourse {
		return nil, unsupported(filter)
	}
	res, err := s.attendance.ListByCourse(ctx, filter.ParentID)
	if err != nil {
		return nil, err
	}
	return s.projector.Attendance(res), nil
}

// FilterOptions offers every course.
func (s *AttendanceSource) FilterOptions(ctx context.Context) (coordinator.FilterChoices, error) {
	return allCourses(ctx, s.courses)
}

// FormOptions offers the students and lessons of the filtered course.
func (s *AttendanceSource) FormOptions(ctx context.Context, filter *coordinator.Filter) (coordinator.FormOptions, error) {
	opts := coordinator.FormOptions{Options: map[string][]models.Option{}}
	if filter == nil || filter.Relation != models.RelationCourse {
		return opts, nil
	}
	course, err := s.courses.Get(ctx, filter.ParentID)
	if err != nil {
		return opts, err
	}
	opts.Options["student_id"] = models.StudentOptions(course.Students)
	opts.Options["lesson_id"] = models.LessonOptions(course.Lessons)
	opts.Meta = courseMeta(course)
	return opts, nil
}

// LessonSource serves the lessons screen, scoped by course.
type LessonSource struct {
	mutator[models.Lesson]
	lessons   lessonStore
	courses   courseStore
	projector *projector.Projector
}

// NewLessonSource constructs a LessonSource.
func NewLessonSource(lessons lessonStore, courses courseStore, p *projector.Projector) *LessonSource {
	return &LessonSource{
		mutator:   mutator[models.Lesson]{store: lessons},
		lessons:   lessons,
		courses:   courses,
		projector: p,
	}
}

// Fetch lists every lesson, or the lessons of one course.
func (s *LessonSource) Fetch(ctx context.Context, filter *coordinator.Filter) ([]models.LessonRow, error) {
	if filter == nil {
		records, err := s.lessons.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.projector.LessonRecords(records), nil
	}
	if filter.Relation != models.RelationCourse {
		return nil, unsupported(filter)
	}
	res, err := s.lessons.ListByCourse(ctx, filter.ParentID)
	if err != nil {
		return nil, err
	}
	return s.projector.Lessons(res), nil
}

// FilterOptions offers every course.
func (s *LessonSource) FilterOptions(ctx context.Context) (coordinator.FilterChoices, error) {
	return allCourses(ctx, s.courses)
}

// FormOptions offers the courses a lesson can belong to.
func (s *LessonSource) FormOptions(ctx context.Context, filter *coordinator.Filter) (coordinator.FormOptions, error) {
	choices, err := allCourses(ctx, s.courses)
	if err != nil {
		return coordinator.FormOptions{}, err
	}
	return coordinator.FormOptions{Options: map[string][]models.Option{"course_id": choices.Options}}, nil
}

// StudentExamSource serves the student-exams screen, scoped by exam.
type StudentExamSource struct {
	mutator[models.StudentExam]
	marks     studentExamStore
	exams     examStore
	courses   courseStore
	projector *projector.Projector
}

// NewStudentExamSource constructs a StudentExamSource.
func NewStudentExamSource(marks studentExamStore, exams examStore, courses courseStore, p *projector.Projector) *StudentExamSource {
	return &StudentExamSource{
		mutator:   mutator[models.StudentExam]{store: marks},
		marks:     marks,
		exams:     exams,
		courses:   courses,
		projector: p,
	}
}

// Fetch lists every mark, or the marks of one exam.
func (s *StudentExamSource) Fetch(ctx context.Context, filter *coordinator.Filter) ([]models.StudentExamRow, error) {
	if filter == nil {
		records, err := s.marks.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.projector.StudentExams(records), nil
	}
	if filter.Relation != models.RelationExam {
		return nil, unsupported(filter)
	}
	res, err := s.marks.ListByExam(ctx, filter.ParentID)
	if err != nil {
		return nil, err
	}
	return s.projector.ExamResults(res), nil
}

// FilterOptions offers every exam.
func (s *StudentExamSource) FilterOptions(ctx context.Context) (coordinator.FilterChoices, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return coordinator.FilterChoices{}, err
	}
	options := make([]models.Option, 0, len(exams))
	for _, exam := range exams {
		options = append(options, models.Option{Value: strconv.FormatInt(exam.ID, 10), Label: exam.Title})
	}
	return coordinator.FilterChoices{Relation: models.RelationExam, Options: options}, nil
}

// FormOptions offers the students sitting the filtered exam, falling back to
// the students of its course, and exposes the exam's mark bounds.
func (s *StudentExamSource) FormOptions(ctx context.Context, filter *coordinator.Filter) (coordinator.FormOptions, error) {
	opts := coordinator.FormOptions{Options: map[string][]models.Option{}}
	if filter == nil || filter.Relation != models.RelationExam {
		return opts, nil
	}
	exam, err := s.exams.Get(ctx, filter.ParentID)
	if err != nil {
		return opts, err
	}
	students := exam.Students
	courseTitle := ""
	if exam.Course != nil {
		courseTitle = exam.Course.Title
		if len(students) == 0 {
			students = exam.Course.Students
		}
	}
	if len(students) == 0 && exam.CourseID != 0 && s.courses != nil {
		if course, err := s.courses.Get(ctx, exam.CourseID); err == nil {
			students = course.Students
			courseTitle = course.Title
		}
	}
	opts.Options["student_id"] = models.StudentOptions(students)
	opts.Meta = map[string]string{
		"exam_id":      strconv.FormatInt(exam.ID, 10),
		"exam_title":   exam.Title,
		"course_title": courseTitle,
		"max_mark":     exam.MaxMark.String(),
		"passing_mark": exam.PassingMark.String(),
	}
	return opts, nil
}

func allCourses(ctx context.Context, courses courseStore) (coordinator.FilterChoices, error) {
	list, err := courses.List(ctx)
	if err != nil {
		return coordinator.FilterChoices{}, err
	}
	options := make([]models.Option, 0, len(list))
	for _, course := range list {
		options = append(options, courseOption(course))
	}
	return coordinator.FilterChoices{Relation: models.RelationCourse, Options: options}, nil
}

func courseOption(course models.Course) models.Option {
	return models.Option{Value: strconv.FormatInt(course.ID, 10), Label: course.Title}
}

func courseMeta(course *models.Course) map[string]string {
	return map[string]string{
		"course_id":    strconv.FormatInt(course.ID, 10),
		"course_title": course.Title,
	}
}

func numberOptions(max int) []models.Option {
	out := make([]models.Option, 0, max)
	for i := 1; i <= max; i++ {
		v := strconv.Itoa(i)
		out = append(out, models.Option{Value: v, Label: v})
	}
	return out
}

func unsupported(filter *coordinator.Filter) error {
	return appErrors.Clone(appErrors.ErrUnsupportedRelation, fmt.Sprintf("screen cannot be scoped by %s", filter.Relation))
}
