package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
)

// RecitationRepository serves recitation records and their per-course view.
type RecitationRepository struct {
	*EntityRepository[models.RecitationRecord]
}

// NewRecitationRepository constructs a RecitationRepository.
func NewRecitationRepository(client Requester, registry *models.Registry) (*RecitationRepository, error) {
	base, err := NewEntityRepository[models.RecitationRecord](client, registry, models.KindRecitations)
	if err != nil {
		return nil, err
	}
	return &RecitationRepository{EntityRepository: base}, nil
}

// ListByCourse returns the course's lessons with the recitations heard in each.
func (r *RecitationRepository) ListByCourse(ctx context.Context, courseID int64) (*models.CourseRecitations, error) {
	var out models.CourseRecitations
	if err := r.ListByRelation(ctx, models.RelationCourse, courseID, &out); err != nil {
		return nil, fmt.Errorf("list recitations of course %d: %w", courseID, err)
	}
	return &out, nil
}

// StudentExamRepository serves student marks and their per-exam view.
type StudentExamRepository struct {
	*EntityRepository[models.StudentExam]
}

// NewStudentExamRepository constructs a StudentExamRepository.
func NewStudentExamRepository(client Requester, registry *models.Registry) (*StudentExamRepository, error) {
	base, err := NewEntityRepository[models.StudentExam](client, registry, models.KindStudentExams)
	if err != nil {
		return nil, err
	}
	return &StudentExamRepository{EntityRepository: base}, nil
}

// ListByExam returns the marks recorded for an exam.
func (r *StudentExamRepository) ListByExam(ctx context.Context, examID int64) (*models.ExamResults, error) {
	var out models.ExamResults
	if err := r.ListByRelation(ctx, models.RelationExam, examID, &out); err != nil {
		return nil, fmt.Errorf("list marks of exam %d: %w", examID, err)
	}
	return &out, nil
}

// AttendanceRepository serves attendance marks and their per-course view.
type AttendanceRepository struct {
	*EntityRepository[models.Attendance]
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(client Requester, registry *models.Registry) (*AttendanceRepository, error) {
	base, err := NewEntityRepository[models.Attendance](client, registry, models.KindAttendance)
	if err != nil {
		return nil, err
	}
	return &AttendanceRepository{EntityRepository: base}, nil
}

// ListByCourse returns the course's lessons with the attendance taken in each.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID int64) (*models.CourseAttendance, error) {
	var out models.CourseAttendance
	if err := r.ListByRelation(ctx, models.RelationCourse, courseID, &out); err != nil {
		return nil, fmt.Errorf("list attendance of course %d: %w", courseID, err)
	}
	return &out, nil
}

// LessonRepository serves lessons and their per-course view.
type LessonRepository struct {
	*EntityRepository[models.Lesson]
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(client Requester, registry *models.Registry) (*LessonRepository, error) {
	base, err := NewEntityRepository[models.Lesson](client, registry, models.KindLessons)
	if err != nil {
		return nil, err
	}
	return &LessonRepository{EntityRepository: base}, nil
}

// ListByCourse returns the lessons of a course.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID int64) (*models.CourseLessons, error) {
	var out models.CourseLessons
	if err := r.ListByRelation(ctx, models.RelationCourse, courseID, &out); err != nil {
		return nil, fmt.Errorf("list lessons of course %d: %w", courseID, err)
	}
	return &out, nil
}

// Repositories bundles one repository per entity kind.
type Repositories struct {
	Courses      *EntityRepository[models.Course]
	Students     *EntityRepository[models.Student]
	Instructors  *EntityRepository[models.Instructor]
	Exams        *EntityRepository[models.Exam]
	CourseFiles  *EntityRepository[models.CourseFile]
	Lessons      *LessonRepository
	Attendance   *AttendanceRepository
	StudentExams *StudentExamRepository
	Recitations  *RecitationRepository
}

// NewRepositories resolves every entity kind against registry.
func NewRepositories(client Requester, registry *models.Registry) (*Repositories, error) {
	var (
		repos = &Repositories{}
		err   error
	)
	if repos.Courses, err = NewEntityRepository[models.Course](client, registry, models.KindCourses); err != nil {
		return nil, err
	}
	if repos.Students, err = NewEntityRepository[models.Student](client, registry, models.KindStudents); err != nil {
		return nil, err
	}
	if repos.Instructors, err = NewEntityRepository[models.Instructor](client, registry, models.KindInstructors); err != nil {
		return nil, err
	}
	if repos.Exams, err = NewEntityRepository[models.Exam](client, registry, models.KindExams); err != nil {
		return nil, err
	}
	if repos.CourseFiles, err = NewEntityRepository[models.CourseFile](client, registry, models.KindCourseFiles); err != nil {
		return nil, err
	}
	if repos.Lessons, err = NewLessonRepository(client, registry); err != nil {
		return nil, err
	}
	if repos.Attendance, err = NewAttendanceRepository(client, registry); err != nil {
		return nil, err
	}
	if repos.StudentExams, err = NewStudentExamRepository(client, registry); err != nil {
		return nil, err
	}
	if repos.Recitations, err = NewRecitationRepository(client, registry); err != nil {
		return nil, err
	}
	return repos, nil
}
