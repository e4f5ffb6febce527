package models

// CourseTypeTahfeez marks memorisation courses that carry recitation records.
const CourseTypeTahfeez = "TahfeezCourse"

// Course is a course offered by the institute. The API embeds enrolled
// students and lessons on detail responses.
type Course struct {
	ID           int64     `json:"id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Type         string    `json:"type"`
	InstructorID int64     `json:"instructor_id,omitempty"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
	Image        string    `json:"image,omitempty"`
	Students     []Student `json:"students,omitempty"`
	Lessons      []Lesson  `json:"lessons,omitempty"`
}

// IsTahfeez reports whether the course keeps recitation records.
func (c Course) IsTahfeez() bool {
	return c.Type == CourseTypeTahfeez
}

func (c Course) RowKey() string  { return formatID(c.ID) }
func (c Course) ServerID() int64 { return c.ID }

func (c Course) SearchFields() []string {
	return []string{c.Title, c.Type, c.Description}
}

func (c Course) Cells() map[string]string {
	return map[string]string{
		"id":          formatID(c.ID),
		"title":       c.Title,
		"type":        c.Type,
		"description": c.Description,
		"start_date":  c.StartDate,
		"end_date":    c.EndDate,
	}
}
