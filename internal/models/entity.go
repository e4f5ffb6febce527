package models

import (
	"fmt"
	"sort"
)

// EntityKind enumerates the resources exposed by the course API.
type EntityKind string

const (
	KindCourses      EntityKind = "courses"
	KindStudents     EntityKind = "students"
	KindInstructors  EntityKind = "instructors"
	KindLessons      EntityKind = "lessons"
	KindExams        EntityKind = "exams"
	KindAttendance   EntityKind = "atten"
	KindStudentExams EntityKind = "stdExam"
	KindRecitations  EntityKind = "recitation"
	KindCourseFiles  EntityKind = "courseFiles"
)

// Relation names a parent scope an entity can be listed under.
type Relation string

const (
	RelationCourse Relation = "course"
	RelationExam   Relation = "exam"
)

// DefaultListKey is the envelope key used when an entity does not override it.
const DefaultListKey = "data"

// EntityDef is the static routing record for one entity kind.
type EntityDef struct {
	Kind EntityKind
	// Path is the URL segment under the API base.
	Path string
	// ListKey is the envelope key wrapping collection responses.
	ListKey string
	// ItemKey is the envelope key wrapping single-record responses, if any.
	ItemKey string
	// Relations maps a parent scope to its URL segment.
	Relations map[Relation]string
}

// ListPath returns GET /{entity}.
func (d EntityDef) ListPath() string {
	return "/" + d.Path
}

// ItemPath returns GET /{entity}/{id}.
func (d EntityDef) ItemPath(id int64) string {
	return fmt.Sprintf("/%s/%d", d.Path, id)
}

// StorePath returns POST /{entity}/store.
func (d EntityDef) StorePath() string {
	return fmt.Sprintf("/%s/store", d.Path)
}

// UpdatePath returns POST /{entity}/update/{id}.
func (d EntityDef) UpdatePath(id int64) string {
	return fmt.Sprintf("/%s/update/%d", d.Path, id)
}

// DeletePath returns DELETE /{entity}/delete/{id}.
func (d EntityDef) DeletePath(id int64) string {
	return fmt.Sprintf("/%s/delete/%d", d.Path, id)
}

// RelationPath returns GET /{entity}/{relation}/{parentId}.
func (d EntityDef) RelationPath(rel Relation, parentID int64) (string, bool) {
	segment, ok := d.Relations[rel]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("/%s/%s/%d", d.Path, segment, parentID), true
}

// Supports reports whether the entity can be scoped by rel.
func (d EntityDef) Supports(rel Relation) bool {
	_, ok := d.Relations[rel]
	return ok
}

// Registry resolves entity kinds to their routing records.
type Registry struct {
	defs map[EntityKind]EntityDef
}

// NewRegistry builds a registry from the given definitions. Blank list keys
// fall back to DefaultListKey.
func NewRegistry(defs ...EntityDef) *Registry {
	r := &Registry{defs: make(map[EntityKind]EntityDef, len(defs))}
	for _, def := range defs {
		if def.Path == "" {
			def.Path = string(def.Kind)
		}
		if def.ListKey == "" {
			def.ListKey = DefaultListKey
		}
		r.defs[def.Kind] = def
	}
	return r
}

// DefaultRegistry describes the course API endpoints.
func DefaultRegistry() *Registry {
	return NewRegistry(
		EntityDef{Kind: KindCourses, ListKey: "courses", ItemKey: "data"},
		EntityDef{Kind: KindStudents, ItemKey: "data"},
		EntityDef{Kind: KindInstructors, ItemKey: "data"},
		EntityDef{Kind: KindLessons, ItemKey: "data", Relations: map[Relation]string{RelationCourse: "course"}},
		EntityDef{Kind: KindExams, ItemKey: "data"},
		EntityDef{Kind: KindAttendance, ItemKey: "data", Relations: map[Relation]string{RelationCourse: "course"}},
		EntityDef{Kind: KindStudentExams, ItemKey: "data", Relations: map[Relation]string{RelationExam: "exam"}},
		EntityDef{Kind: KindRecitations, ListKey: "student_recitation", ItemKey: "data", Relations: map[Relation]string{RelationCourse: "course"}},
		EntityDef{Kind: KindCourseFiles, ItemKey: "data"},
	)
}

// Lookup returns the definition for kind.
func (r *Registry) Lookup(kind EntityKind) (EntityDef, bool) {
	def, ok := r.defs[kind]
	return def, ok
}

// Kinds lists registered kinds in a stable order.
func (r *Registry) Kinds() []EntityKind {
	kinds := make([]EntityKind, 0, len(r.defs))
	for kind := range r.defs {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
