package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/internal/coordinator"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/projector"
	"github.com/noah-isme/yakhtimoon-console/internal/repository"
	"github.com/noah-isme/yakhtimoon-console/internal/transport"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/export"
)

// Screen is the type-erased face of a screen coordinator used by handlers.
type Screen interface {
	Name() string
	Title() string
	Mounted() bool
	Mount(ctx context.Context) error
	Refresh(ctx context.Context) error
	SetFilter(ctx context.Context, filter *coordinator.Filter) error
	SetSearch(term string)
	FilterOptions(ctx context.Context) (coordinator.FilterChoices, error)
	OpenCreate(ctx context.Context) error
	OpenEdit(ctx context.Context, key string) error
	CloseForm()
	Submit(ctx context.Context, payload interface{}) error
	Delete(ctx context.Context, key string, confirmed bool) error
	Snapshot() interface{}
	Dataset() export.Dataset
}

type screen[R models.Row] struct {
	*coordinator.Coordinator[R]
	title   string
	columns []export.Column
}

// NewScreen wraps a coordinator with the presentation metadata of its screen.
func NewScreen[R models.Row](c *coordinator.Coordinator[R], title string, columns []export.Column) Screen {
	return &screen[R]{Coordinator: c, title: title, columns: columns}
}

func (s *screen[R]) Title() string {
	return s.title
}

// Submit fills in the parent id of the current filter when a JSON payload
// omits it, so forms opened on a scoped screen land in that scope.
func (s *screen[R]) Submit(ctx context.Context, payload interface{}) error {
	filter := s.Filter()
	if filter == nil {
		return s.Coordinator.Submit(ctx, payload)
	}
	key := parentKey(filter.Relation)
	switch body := payload.(type) {
	case map[string]interface{}:
		if _, present := body[key]; !present {
			body[key] = filter.ParentID
		}
	case *transport.FormData:
		if body != nil && !body.Has(key) {
			body.Set(key, strconv.FormatInt(filter.ParentID, 10))
		}
	}
	return s.Coordinator.Submit(ctx, payload)
}

func (s *screen[R]) Delete(ctx context.Context, key string, confirmed bool) error {
	return s.Coordinator.Delete(ctx, key, func(R) bool { return confirmed })
}

func (s *screen[R]) Snapshot() interface{} {
	return s.View()
}

// Dataset renders the visible rows for export.
func (s *screen[R]) Dataset() export.Dataset {
	rows := s.Visible()
	data := export.Dataset{Columns: s.columns, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, row.Cells())
	}
	return data
}

func parentKey(rel models.Relation) string {
	if rel == models.RelationExam {
		return "exam_id"
	}
	return "course_id"
}

// ScreenService owns one coordinator per console screen.
type ScreenService struct {
	screens map[string]Screen
	logger  *zap.Logger
}

// NewScreenService builds every screen on top of repos.
func NewScreenService(repos *repository.Repositories, p *projector.Projector, observer coordinator.MutationObserver, logger *zap.Logger) *ScreenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p == nil {
		p = projector.New(logger, nil)
	}
	cfg := coordinator.Config{Logger: logger, Observer: observer}

	s := &ScreenService{screens: map[string]Screen{}, logger: logger}
	s.add(NewScreen(coordinator.New[models.Course](string(models.KindCourses), NewEntitySource[models.Course](repos.Courses), cfg),
		"Courses", columns("id:ID", "title:Title", "type:Type", "start_date:Start", "end_date:End")))
	s.add(NewScreen(coordinator.New[models.Student](string(models.KindStudents), NewEntitySource[models.Student](repos.Students), cfg),
		"Students", columns("id:ID", "name:Name", "email:Email", "phone:Phone", "gender:Gender")))
	s.add(NewScreen(coordinator.New[models.Instructor](string(models.KindInstructors), NewEntitySource[models.Instructor](repos.Instructors), cfg),
		"Instructors", columns("id:ID", "name:Name", "email:Email", "phone:Phone", "specialization:Specialization")))
	s.add(NewScreen(coordinator.New[models.Exam](string(models.KindExams), NewEntitySource[models.Exam](repos.Exams), cfg),
		"Exams", columns("id:ID", "title:Title", "exam_date:Date", "max_mark:Max Mark", "passing_mark:Passing Mark")))
	s.add(NewScreen(coordinator.New[models.CourseFile](string(models.KindCourseFiles), NewEntitySource[models.CourseFile](repos.CourseFiles), cfg),
		"Course Files", columns("id:ID", "course_id:Course", "title:Title", "file:File")))
	s.add(NewScreen(coordinator.New[models.LessonRow](string(models.KindLessons), NewLessonSource(repos.Lessons, repos.Courses, p), cfg),
		"Lessons", columns("course_title:Course", "lesson_title:Lesson", "lesson_date:Date")))
	s.add(NewScreen(coordinator.New[models.AttendanceRow](string(models.KindAttendance), NewAttendanceSource(repos.Attendance, repos.Courses, p), cfg),
		"Attendance", columns("student_name:Student", "lesson_title:Lesson", "lesson_date:Date", "status:Status", "notes:Notes")))
	s.add(NewScreen(coordinator.New[models.StudentExamRow](string(models.KindStudentExams), NewStudentExamSource(repos.StudentExams, repos.Exams, repos.Courses, p), cfg),
		"Student Exams", columns("exam_id:Exam ID", "student_id:Student ID", "student_name:Student", "student_mark:Mark")))
	s.add(NewScreen(coordinator.New[models.RecitationRow](string(models.KindRecitations), NewRecitationSource(repos.Recitations, repos.Courses, p), cfg),
		"Recitation", columns("student_name:Student", "lesson_title:Lesson", "lesson_date:Date", "current_juz:Juz", "current_juz_page:Page", "recitation_evaluation:Evaluation", "homework:Homework")))
	return s
}

func (s *ScreenService) add(screen Screen) {
	s.screens[screen.Name()] = screen
}

// Register adds or replaces a screen.
func (s *ScreenService) Register(screen Screen) {
	s.add(screen)
}

// Names lists the screens in a stable order.
func (s *ScreenService) Names() []string {
	names := make([]string, 0, len(s.screens))
	for name := range s.screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves a screen by name.
func (s *ScreenService) Get(name string) (Screen, error) {
	screen, ok := s.screens[name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("screen %q not found", name))
	}
	return screen, nil
}

// Open resolves a screen and mounts it on first use.
func (s *ScreenService) Open(ctx context.Context, name string) (Screen, error) {
	screen, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if !screen.Mounted() {
		if err := screen.Mount(ctx); err != nil {
			s.logger.Warn("screen mount failed", zap.String("screen", name), zap.Error(err))
		}
	}
	return screen, nil
}

// ParseFilter builds a filter from its wire form. A blank relation or a zero
// parent id clears it.
func ParseFilter(relation string, parentID int64) (*coordinator.Filter, error) {
	if relation == "" || parentID == 0 {
		return nil, nil
	}
	if parentID < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent_id must be a positive integer")
	}
	switch rel := models.Relation(relation); rel {
	case models.RelationCourse, models.RelationExam:
		return &coordinator.Filter{Relation: rel, ParentID: parentID}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedRelation, fmt.Sprintf("unknown relation %q", relation))
	}
}

func columns(specs ...string) []export.Column {
	out := make([]export.Column, 0, len(specs))
	for _, spec := range specs {
		key, label, found := strings.Cut(spec, ":")
		if !found {
			label = key
		}
		out = append(out, export.Column{Key: key, Label: label})
	}
	return out
}
