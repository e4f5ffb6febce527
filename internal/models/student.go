package models

// Student is a learner enrolled in one or more courses.
type Student struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Image     string `json:"image,omitempty"`
}

func (s Student) RowKey() string  { return formatID(s.ID) }
func (s Student) ServerID() int64 { return s.ID }

func (s Student) SearchFields() []string {
	return []string{s.Name, s.Email, s.Phone}
}

func (s Student) Cells() map[string]string {
	return map[string]string{
		"id":         formatID(s.ID),
		"name":       s.Name,
		"email":      s.Email,
		"phone":      s.Phone,
		"gender":     s.Gender,
		"birth_date": s.BirthDate,
	}
}

// StudentOptions turns students into form options.
func StudentOptions(students []Student) []Option {
	out := make([]Option, 0, len(students))
	for _, s := range students {
		out = append(out, Option{Value: formatID(s.ID), Label: s.Name})
	}
	return out
}
