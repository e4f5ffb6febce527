package models

// CourseFile is a downloadable attachment of a course.
type CourseFile struct {
	ID          int64  `json:"id,omitempty"`
	CourseID    int64  `json:"course_id"`
	Title       string `json:"title"`
	File        string `json:"file,omitempty"`
	Description string `json:"description,omitempty"`
}

func (f CourseFile) RowKey() string  { return formatID(f.ID) }
func (f CourseFile) ServerID() int64 { return f.ID }

func (f CourseFile) SearchFields() []string {
	return []string{f.Title, f.Description}
}

func (f CourseFile) Cells() map[string]string {
	return map[string]string{
		"id":        formatID(f.ID),
		"course_id": formatID(f.CourseID),
		"title":     f.Title,
		"file":      f.File,
	}
}
