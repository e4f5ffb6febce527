package models

// Instructor teaches courses.
type Instructor struct {
	ID             int64  `json:"id,omitempty"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Image          string `json:"image,omitempty"`
}

func (i Instructor) RowKey() string  { return formatID(i.ID) }
func (i Instructor) ServerID() int64 { return i.ID }

func (i Instructor) SearchFields() []string {
	return []string{i.Name, i.Email, i.Specialization}
}

func (i Instructor) Cells() map[string]string {
	return map[string]string{
		"id":             formatID(i.ID),
		"name":           i.Name,
		"email":          i.Email,
		"phone":          i.Phone,
		"specialization": i.Specialization,
	}
}
