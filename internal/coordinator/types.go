package coordinator

import (
	"context"
	"fmt"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

// State is the lifecycle phase of a screen.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateMutating State = "mutating"
	StateError    State = "error"
)

// Filter scopes a screen to the children of one parent record. A nil
// *Filter means the screen is unscoped.
type Filter struct {
	Relation models.Relation `json:"relation"`
	ParentID int64           `json:"parent_id"`
}

// Tag identifies the scope a fetch was issued for.
func (f *Filter) Tag() string {
	if f == nil {
		return "*"
	}
	return fmt.Sprintf("%s:%d", f.Relation, f.ParentID)
}

func (f *Filter) clone() *Filter {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// Source loads and mutates the records behind a screen.
type Source[R models.Row] interface {
	Fetch(ctx context.Context, filter *Filter) ([]R, error)
	Create(ctx context.Context, payload interface{}) error
	Update(ctx context.Context, id int64, payload interface{}) error
	Delete(ctx context.Context, id int64) error
}

// FormOptions are the selectable values and read-only metadata offered to
// the form of a screen.
type FormOptions struct {
	Options map[string][]models.Option `json:"options,omitempty"`
	Meta    map[string]string          `json:"meta,omitempty"`
}

// OptionSource is implemented by sources whose forms need relation-scoped
// options, such as the students of the filtered course.
type OptionSource interface {
	FormOptions(ctx context.Context, filter *Filter) (FormOptions, error)
}

// FilterChoices lists the parents a screen can be scoped to.
type FilterChoices struct {
	Relation models.Relation `json:"relation"`
	Options  []models.Option `json:"options"`
}

// FilterSource is implemented by sources that support a relation filter.
type FilterSource interface {
	FilterOptions(ctx context.Context) (FilterChoices, error)
}

// FormMode tells whether the open form creates or edits a record.
type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// Form is the state handed to the form collaborator.
type Form[R models.Row] struct {
	Open    bool                       `json:"open"`
	Mode    FormMode                   `json:"mode,omitempty"`
	Record  *R                         `json:"record,omitempty"`
	Options map[string][]models.Option `json:"options,omitempty"`
	Meta    map[string]string          `json:"meta,omitempty"`
	Errors  appErrors.FieldErrors      `json:"errors"`
}

// View is the snapshot handed to the table collaborator.
type View[R models.Row] struct {
	Screen  string  `json:"screen"`
	State   State   `json:"state"`
	Loading bool    `json:"loading"`
	Filter  *Filter `json:"filter"`
	Search  string  `json:"search"`
	Rows    []R     `json:"rows"`
	Total   int     `json:"total"`
	Notice  string  `json:"notice,omitempty"`
	Form    Form[R] `json:"form"`
}

// MutationEvent describes a finished create, update or delete.
type MutationEvent struct {
	Screen   string
	Action   string
	RecordID int64
	Err      error
}

// MutationObserver is notified after every mutation attempt.
type MutationObserver interface {
	MutationCompleted(ctx context.Context, event MutationEvent)
}

// ConfirmFunc asks the operator to confirm deleting row.
type ConfirmFunc[R models.Row] func(row R) bool
