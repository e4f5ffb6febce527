package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/transport"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

// fakeCourseAPI mimics the store/update/delete routes of one entity.
type fakeCourseAPI struct {
	mu      sync.Mutex
	entity  string
	nextID  int64
	records map[int64]map[string]interface{}
	calls   []string
}

func newFakeCourseAPI(entity string) *fakeCourseAPI {
	return &fakeCourseAPI{entity: entity, nextID: 1, records: map[int64]map[string]interface{}{}}
}

func (f *fakeCourseAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] != f.entity {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "store":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["title"] == nil || body["title"] == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"title":["The title field is required."]}}`))
			return
		}
		id := f.nextID
		f.nextID++
		body["id"] = id
		f.records[id] = body
		writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "created", "data": body})
	case r.Method == http.MethodPost && len(parts) == 3 && parts[1] == "update":
		var id int64
		fmt.Sscan(parts[2], &id)
		record, ok := f.records[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for k, v := range body {
			record[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": record})
	case r.Method == http.MethodDelete && len(parts) == 3 && parts[1] == "delete":
		var id int64
		fmt.Sscan(parts[2], &id)
		delete(f.records, id)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && len(parts) == 2:
		var id int64
		fmt.Sscan(parts[1], &id)
		record, ok := f.records[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": record})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestRepos(t *testing.T, handler http.Handler) *Repositories {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := transport.New(transport.Options{BaseURL: server.URL})
	require.NoError(t, err)
	repos, err := NewRepositories(client, models.DefaultRegistry())
	require.NoError(t, err)
	return repos
}

func TestEntityRepositoryCreateThenGetRoundTrip(t *testing.T) {
	api := newFakeCourseAPI("exams")
	repos := newTestRepos(t, api)
	ctx := context.Background()

	created, err := repos.Exams.Create(ctx, models.Exam{CourseID: 3, Title: "Midterm", MaxMark: "100", PassingMark: "60"})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotZero(t, created.ID)

	fetched, err := repos.Exams.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, fetched.Title)
	assert.Equal(t, created.CourseID, fetched.CourseID)
	assert.Equal(t, models.Text("100"), fetched.MaxMark)
}

func TestEntityRepositoryUpdateAndDeleteUseCourseAPIRoutes(t *testing.T) {
	api := newFakeCourseAPI("exams")
	repos := newTestRepos(t, api)
	ctx := context.Background()

	created, err := repos.Exams.Create(ctx, models.Exam{Title: "Quiz"})
	require.NoError(t, err)

	updated, err := repos.Exams.Update(ctx, created.ID, map[string]interface{}{"title": "Quiz 2"})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 2", updated.Title)

	require.NoError(t, repos.Exams.Delete(ctx, created.ID))

	_, err = repos.Exams.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.UpstreamStatus(err))

	assert.Equal(t, []string{
		"POST /exams/store",
		"POST /exams/update/1",
		"DELETE /exams/delete/1",
		"GET /exams/1",
	}, api.calls)
}

func TestEntityRepositoryCreatePropagatesValidationErrors(t *testing.T) {
	repos := newTestRepos(t, newFakeCourseAPI("exams"))

	_, err := repos.Exams.Create(context.Background(), models.Exam{})
	require.Error(t, err)
	require.True(t, appErrors.IsUnprocessable(err))
	assert.Equal(t, appErrors.FieldErrors{"title": {"The title field is required."}}, appErrors.FromError(err).Fields)
}

func TestEntityRepositoryListUnwrapsEnvelopes(t *testing.T) {
	repos := newTestRepos(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/courses":
			_, _ = w.Write([]byte(`{"courses":[{"id":1,"title":"Hifz","type":"TahfeezCourse"},{"id":2,"title":"Fiqh","type":"Course"}]}`))
		case "/recitation":
			_, _ = w.Write([]byte(`{"student_recitation":[{"id":7,"student_id":3,"course_id":"1","lesson_id":4,"current_juz":"Juz 2"}]}`))
		case "/students":
			_, _ = w.Write([]byte(`[{"id":5,"name":"Aisha"}]`))
		case "/instructors":
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		case "/exams":
			_, _ = w.Write([]byte(`{"data":null}`))
		}
	}))
	ctx := context.Background()

	courses, err := repos.Courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.True(t, courses[0].IsTahfeez())

	recitations, err := repos.Recitations.List(ctx)
	require.NoError(t, err)
	require.Len(t, recitations, 1)
	assert.Equal(t, models.Text("Juz 2"), recitations[0].CurrentJuz)

	students, err := repos.Students.List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Aisha", students[0].Name)

	instructors, err := repos.Instructors.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, instructors)
	assert.Empty(t, instructors)

	exams, err := repos.Exams.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, exams)
	assert.Empty(t, exams)
}

func TestEntityRepositoryListRejectsScalarBodies(t *testing.T) {
	repos := newTestRepos(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"oops"`))
	}))

	_, err := repos.Courses.List(context.Background())
	assert.True(t, appErrors.IsDecode(err))
}

func TestRelationalQueriesDecodeSchemas(t *testing.T) {
	repos := newTestRepos(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recitation/course/1":
			_, _ = w.Write([]byte(`{"course_id":1,"course_title":"Hifz","recitations_by_lesson":[{"lesson_id":10,"lesson_title":"L1","recitations":[{"id":100,"student_id":5,"student_name":"Aisha","current_juz":"Juz 3"}]}]}`))
		case "/stdExam/exam/2":
			_, _ = w.Write([]byte(`{"exam_id":"2","exam_title":"Final","max_mark":"100","passing_mark":"50","student_exams":[{"id":1,"student_id":5,"student_mark":"72.5"}]}`))
		case "/atten/course/1":
			_, _ = w.Write([]byte(`{"course_id":"1","attendance_by_lesson":[]}`))
		case "/lessons/course/1":
			_, _ = w.Write([]byte(`{"course_id":"1","lessons":[{"id":10,"lesson_title":"L1"}]}`))
		}
	}))
	ctx := context.Background()

	recitations, err := repos.Recitations.ListByCourse(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Text("1"), recitations.CourseID)
	require.Len(t, recitations.RecitationsByLesson, 1)
	assert.Equal(t, "Aisha", recitations.RecitationsByLesson[0].Recitations[0].StudentName)

	results, err := repos.StudentExams.ListByExam(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.Text("72.5"), results.StudentExams[0].StudentMark)

	attendance, err := repos.Attendance.ListByCourse(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, attendance.AttendanceByLesson)

	lessons, err := repos.Lessons.ListByCourse(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, lessons.Lessons, 1)
}

func TestListByRelationRejectsUnsupportedRelation(t *testing.T) {
	repos := newTestRepos(t, http.NotFoundHandler())

	var out models.ExamResults
	err := repos.Courses.ListByRelation(context.Background(), models.RelationExam, 1, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedRelation)
}

func TestListByRelationEmptyBodyIsDecodeError(t *testing.T) {
	repos := newTestRepos(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := repos.Recitations.ListByCourse(context.Background(), 9)
	assert.True(t, appErrors.IsDecode(err))
}

func TestNewEntityRepositoryUnknownKind(t *testing.T) {
	_, err := NewEntityRepository[models.Course](nil, models.NewRegistry(), models.KindCourses)
	assert.ErrorIs(t, err, appErrors.ErrUnknownEntity)
}
