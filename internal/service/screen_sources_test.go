package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/internal/coordinator"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/projector"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

type storeStub[T any] struct {
	mu       sync.Mutex
	items    []T
	created  []interface{}
	updated  map[int64]interface{}
	deleted  []int64
	failWith error
}

func (s *storeStub[T]) List(ctx context.Context) ([]T, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.items, nil
}

func (s *storeStub[T]) Get(ctx context.Context, id int64) (*T, error) {
	return nil, appErrors.ErrNotFound
}

func (s *storeStub[T]) Create(ctx context.Context, payload interface{}) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.created = append(s.created, payload)
	return nil, nil
}

func (s *storeStub[T]) Update(ctx context.Context, id int64, payload interface{}) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updated == nil {
		s.updated = map[int64]interface{}{}
	}
	s.updated[id] = payload
	return nil, nil
}

func (s *storeStub[T]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *storeStub[T]) createdPayloads() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interface{}(nil), s.created...)
}

type courseStoreStub struct {
	courses []models.Course
}

func (s courseStoreStub) List(ctx context.Context) ([]models.Course, error) {
	return s.courses, nil
}

func (s courseStoreStub) Get(ctx context.Context, id int64) (*models.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			c := s.courses[i]
			return &c, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type examStoreStub struct {
	exams []models.Exam
}

func (s examStoreStub) List(ctx context.Context) ([]models.Exam, error) {
	return s.exams, nil
}

func (s examStoreStub) Get(ctx context.Context, id int64) (*models.Exam, error) {
	for i := range s.exams {
		if s.exams[i].ID == id {
			e := s.exams[i]
			return &e, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type recitationStoreStub struct {
	storeStub[models.RecitationRecord]
	byCourse map[int64]*models.CourseRecitations
}

func (s *recitationStoreStub) ListByCourse(ctx context.Context, courseID int64) (*models.CourseRecitations, error) {
	res, ok := s.byCourse[courseID]
	if !ok {
		return nil, appErrors.HTTP(404, nil)
	}
	return res, nil
}

type studentExamStoreStub struct {
	storeStub[models.StudentExam]
	byExam map[int64]*models.ExamResults
}

func (s *studentExamStoreStub) ListByExam(ctx context.Context, examID int64) (*models.ExamResults, error) {
	res, ok := s.byExam[examID]
	if !ok {
		return nil, appErrors.HTTP(404, nil)
	}
	return res, nil
}

func sampleCourses() courseStoreStub {
	return courseStoreStub{courses: []models.Course{
		{
			ID: 7, Title: "Tahfeez Morning", Type: models.CourseTypeTahfeez,
			Students: []models.Student{{ID: 11, Name: "Aisha"}, {ID: 12, Name: "Omar"}},
			Lessons:  []models.Lesson{{ID: 3, LessonTitle: "Al-Mulk"}},
		},
		{ID: 8, Title: "Arabic Grammar", Type: "RegularCourse"},
	}}
}

func sampleRecitations() *recitationStoreStub {
	return &recitationStoreStub{
		storeStub: storeStub[models.RecitationRecord]{items: []models.RecitationRecord{
			{ID: 90, StudentID: 11, CourseID: "7", LessonID: 3, CurrentJuz: "Juz 2", CurrentJuzPage: "4"},
		}},
		byCourse: map[int64]*models.CourseRecitations{
			7: {
				CourseID:    "7",
				CourseTitle: "Tahfeez Morning",
				RecitationsByLesson: []models.LessonRecitations{{
					LessonID: 3, LessonTitle: "Al-Mulk", LessonDate: "2026-01-10",
					Recitations: []models.RecitationEntry{
						{ID: 100, StudentID: 11, StudentName: "Aisha", CurrentJuz: "Juz 29", CurrentJuzPage: "2"},
						{ID: 101, StudentID: 12, StudentName: "Omar", CurrentJuz: "30", CurrentJuzPage: "1"},
					},
				}},
			},
		},
	}
}

func TestRecitationSourceFetch(t *testing.T) {
	src := NewRecitationSource(sampleRecitations(), sampleCourses(), projector.New(zap.NewNop(), nil))
	ctx := context.Background()

	all, err := src.Fetch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].CurrentJuz)
	assert.Equal(t, "3-11", all[0].ID)

	scoped, err := src.Fetch(ctx, &coordinator.Filter{Relation: models.RelationCourse, ParentID: 7})
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, int64(100), scoped[0].RecordID)
	assert.Equal(t, 29, scoped[0].CurrentJuz)
	assert.Equal(t, int64(7), scoped[1].CourseID)

	_, err = src.Fetch(ctx, &coordinator.Filter{Relation: models.RelationExam, ParentID: 1})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedRelation)
}

func TestRecitationSourceFilterOptionsOnlyTahfeez(t *testing.T) {
	src := NewRecitationSource(sampleRecitations(), sampleCourses(), projector.New(zap.NewNop(), nil))

	choices, err := src.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RelationCourse, choices.Relation)
	assert.Equal(t, []models.Option{{Value: "7", Label: "Tahfeez Morning"}}, choices.Options)
}

func TestRecitationSourceFormOptions(t *testing.T) {
	src := NewRecitationSource(sampleRecitations(), sampleCourses(), projector.New(zap.NewNop(), nil))
	ctx := context.Background()

	unscoped, err := src.FormOptions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, unscoped.Options["recitation_per_page"], models.MaxRecitationPages)
	assert.Len(t, unscoped.Options["recitation_evaluation"], len(models.RecitationEvaluations))
	assert.NotContains(t, unscoped.Options, "student_id")

	scoped, err := src.FormOptions(ctx, &coordinator.Filter{Relation: models.RelationCourse, ParentID: 7})
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Value: "11", Label: "Aisha"}, {Value: "12", Label: "Omar"}}, scoped.Options["student_id"])
	assert.Equal(t, []models.Option{{Value: "3", Label: "Al-Mulk"}}, scoped.Options["lesson_id"])
	assert.Equal(t, "Tahfeez Morning", scoped.Meta["course_title"])
}

func TestStudentExamSourceFormOptionsFallsBackToCourse(t *testing.T) {
	marks := &studentExamStoreStub{byExam: map[int64]*models.ExamResults{}}
	exams := examStoreStub{exams: []models.Exam{{ID: 5, CourseID: 7, Title: "Midterm", MaxMark: "100", PassingMark: "60"}}}
	src := NewStudentExamSource(marks, exams, sampleCourses(), projector.New(zap.NewNop(), nil))

	opts, err := src.FormOptions(context.Background(), &coordinator.Filter{Relation: models.RelationExam, ParentID: 5})
	require.NoError(t, err)
	assert.Len(t, opts.Options["student_id"], 2)
	assert.Equal(t, map[string]string{
		"exam_id":      "5",
		"exam_title":   "Midterm",
		"course_title": "Tahfeez Morning",
		"max_mark":     "100",
		"passing_mark": "60",
	}, opts.Meta)

	choices, err := src.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RelationExam, choices.Relation)
	assert.Equal(t, []models.Option{{Value: "5", Label: "Midterm"}}, choices.Options)
}

func TestStudentExamSourceFetchByExam(t *testing.T) {
	marks := &studentExamStoreStub{byExam: map[int64]*models.ExamResults{
		5: {ExamID: "5", ExamTitle: "Midterm", MaxMark: "100", PassingMark: "60", StudentExams: []models.ExamResultEntry{
			{ID: 1, StudentID: 11, StudentName: "Aisha", StudentMark: "75"},
		}},
	}}
	src := NewStudentExamSource(marks, examStoreStub{}, sampleCourses(), projector.New(zap.NewNop(), nil))

	rows, err := src.Fetch(context.Background(), &coordinator.Filter{Relation: models.RelationExam, ParentID: 5})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Passed())

	_, err = src.Fetch(context.Background(), &coordinator.Filter{Relation: models.RelationCourse, ParentID: 7})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedRelation)
}

func TestEntitySourceRejectsFilter(t *testing.T) {
	src := NewEntitySource[models.Course](&storeStub[models.Course]{items: sampleCourses().courses})

	rows, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = src.Fetch(context.Background(), &coordinator.Filter{Relation: models.RelationCourse, ParentID: 1})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedRelation)
}
