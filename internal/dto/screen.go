package dto

// FilterRequest captures PUT /screens/:screen/filter. An empty body clears
// the filter.
type FilterRequest struct {
	Relation string `json:"relation"`
	ParentID int64  `json:"parent_id"`
}

// FormRequest captures POST /screens/:screen/form. A blank key opens the
// create form.
type FormRequest struct {
	Key string `json:"key"`
}

// ViewQuery captures GET /screens/:screen query parameters.
type ViewQuery struct {
	Search *string `form:"search"`
}

// DeleteQuery captures DELETE /screens/:screen/rows/:key query parameters.
type DeleteQuery struct {
	Confirm bool `form:"confirm"`
}

// ExportQuery captures GET /screens/:screen/export query parameters.
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=csv pdf CSV PDF"`
}

// AuditQuery captures GET /screens/:screen/audit query parameters.
type AuditQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ScreenSummary lists a screen in GET /screens.
type ScreenSummary struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Mounted bool   `json:"mounted"`
}
