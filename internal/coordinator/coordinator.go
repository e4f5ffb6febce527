// Package coordinator owns the view state of one console screen: the relation
// filter, the projected rows, the search term and the open form. Every
// mutation is followed by a refetch for the filter current at completion.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

const (
	noticeLoadFailed = "Unable to load records. Please try again."
	noticeSaveFailed = "Unable to save the record. Please try again."
	noticeDelFailed  = "Unable to delete the record. Please try again."
)

// Config carries optional collaborators.
type Config struct {
	Logger   *zap.Logger
	Observer MutationObserver
}

// Coordinator serializes fetches and mutations of one screen. The mutex is
// never held across calls to the Source.
type Coordinator[R models.Row] struct {
	name     string
	source   Source[R]
	logger   *zap.Logger
	observer MutationObserver

	mu         sync.Mutex
	state      State
	filter     *Filter
	rows       []R
	search     string
	notice     string
	form       Form[R]
	formSeq    uint64
	gen        uint64
	loadingTag string
	fetchErr   error
	loaded     bool
	mounted    bool
	stale      bool
}

type fetchTicket struct {
	gen    uint64
	tag    string
	filter *Filter
}

// New constructs a Coordinator for the screen name.
func New[R models.Row](name string, source Source[R], cfg Config) *Coordinator[R] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Coordinator[R]{
		name:     name,
		source:   source,
		logger:   cfg.Logger.With(zap.String("screen", name)),
		observer: cfg.Observer,
		state:    StateIdle,
		rows:     make([]R, 0),
	}
}

// Name returns the screen name.
func (c *Coordinator[R]) Name() string {
	return c.name
}

// Mounted reports whether Mount has been called.
func (c *Coordinator[R]) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Mount performs the initial fetch.
func (c *Coordinator[R]) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh refetches the rows of the current filter.
func (c *Coordinator[R]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardFetchLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	ticket := c.beginFetchLocked()
	c.mu.Unlock()
	return c.runFetch(ctx, ticket)
}

// SetFilter replaces the relation filter, clears the rows and fetches the new
// scope. During a mutation the filter is only recorded; the refetch that
// follows the mutation honours it.
func (c *Coordinator[R]) SetFilter(ctx context.Context, filter *Filter) error {
	c.mu.Lock()
	c.filter = filter.clone()
	c.rows = make([]R, 0)
	c.mounted = true
	if c.state == StateMutating {
		c.stale = true
		c.mu.Unlock()
		return nil
	}
	if err := c.guardFetchLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	ticket := c.beginFetchLocked()
	c.mu.Unlock()
	return c.runFetch(ctx, ticket)
}

// Filter returns the current relation filter.
func (c *Coordinator[R]) Filter() *Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.clone()
}

// State returns the current lifecycle state.
func (c *Coordinator[R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetSearch sets the search term. It never triggers a fetch.
func (c *Coordinator[R]) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

// Rows returns every row of the current scope, ignoring the search term.
func (c *Coordinator[R]) Rows() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]R, 0, len(c.rows)), c.rows...)
}

// Visible returns the rows matching the search term.
func (c *Coordinator[R]) Visible() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Search(c.rows, c.search)
}

// View returns a snapshot for the table collaborator.
func (c *Coordinator[R]) View() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View[R]{
		Screen:  c.name,
		State:   c.state,
		Loading: c.state == StateLoading,
		Filter:  c.filter.clone(),
		Search:  c.search,
		Rows:    Search(c.rows, c.search),
		Total:   len(c.rows),
		Notice:  c.notice,
		Form:    c.formLocked(),
	}
}

// Form returns the state of the form collaborator.
func (c *Coordinator[R]) Form() Form[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formLocked()
}

// FilterOptions lists the parents the screen can be scoped to.
func (c *Coordinator[R]) FilterOptions(ctx context.Context) (FilterChoices, error) {
	fs, ok := c.source.(FilterSource)
	if !ok {
		return FilterChoices{Options: []models.Option{}}, nil
	}
	return fs.FilterOptions(ctx)
}

// OpenCreate opens an empty form.
func (c *Coordinator[R]) OpenCreate(ctx context.Context) error {
	return c.openForm(ctx, FormCreate, nil)
}

// OpenEdit opens the form on the row identified by key.
func (c *Coordinator[R]) OpenEdit(ctx context.Context, key string) error {
	c.mu.Lock()
	row, ok := c.findLocked(key)
	c.mu.Unlock()
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("row %q not found", key))
	}
	return c.openForm(ctx, FormEdit, &row)
}

// CloseForm closes the form and discards its validation errors.
func (c *Coordinator[R]) CloseForm() {
	c.mu.Lock()
	c.form = Form[R]{}
	c.formSeq++
	c.mu.Unlock()
}

// Submit creates or updates the record of the open form. On success the form
// closes and the current scope is refetched. An unprocessable response
// replaces the form errors with the server's mapping and leaves rows as they
// are; any other failure only raises a notice.
func (c *Coordinator[R]) Submit(ctx context.Context, payload interface{}) error {
	c.mu.Lock()
	if err := c.guardMutationLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.form.Open {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, "no form is open")
	}
	c.form.Errors = appErrors.FieldErrors{}
	mode, record := c.form.Mode, c.form.Record
	c.state = StateMutating
	c.notice = ""
	c.mu.Unlock()

	action := models.AuditActionCreate
	var (
		id  int64
		err error
	)
	if mode == FormEdit {
		action = models.AuditActionUpdate
		if record != nil {
			id = (*record).ServerID()
		}
		if id == 0 {
			err = appErrors.Clone(appErrors.ErrNotPersisted, "this row was never saved and cannot be edited")
		} else {
			err = c.source.Update(ctx, id, payload)
		}
	} else {
		err = c.source.Create(ctx, payload)
	}
	c.notify(ctx, MutationEvent{Screen: c.name, Action: action, RecordID: id, Err: err})

	if err != nil {
		c.mu.Lock()
		if appErrors.IsUnprocessable(err) {
			if !c.form.Open {
				return c.finishFailedMutationLocked(ctx, err)
			}
			c.form.Errors = appErrors.FromError(err).Fields.Clone()
			if c.form.Errors == nil {
				c.form.Errors = appErrors.FieldErrors{}
			}
		} else {
			c.notice = noticeSaveFailed
			c.logger.Error("save failed", zap.String("action", action), zap.Int64("record_id", id), zap.Error(err))
		}
		return c.finishFailedMutationLocked(ctx, err)
	}

	c.mu.Lock()
	c.form = Form[R]{}
	c.formSeq++
	c.stale = false
	ticket := c.beginFetchLocked()
	c.mu.Unlock()
	if fetchErr := c.runFetch(ctx, ticket); fetchErr != nil {
		c.logger.Warn("refetch after save failed", zap.Error(fetchErr))
	}
	return nil
}

// Delete removes the row identified by key once confirm approves it. A
// declined or missing confirmation changes nothing.
func (c *Coordinator[R]) Delete(ctx context.Context, key string, confirm ConfirmFunc[R]) error {
	c.mu.Lock()
	if err := c.guardMutationLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	row, ok := c.findLocked(key)
	c.mu.Unlock()
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("row %q not found", key))
	}
	if confirm == nil || !confirm(row) {
		return nil
	}

	c.mu.Lock()
	if err := c.guardMutationLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = StateMutating
	c.notice = ""
	c.mu.Unlock()

	var err error
	id := row.ServerID()
	if id == 0 {
		err = appErrors.Clone(appErrors.ErrNotPersisted, "this row was never saved and cannot be deleted")
	} else {
		err = c.source.Delete(ctx, id)
	}
	c.notify(ctx, MutationEvent{Screen: c.name, Action: models.AuditActionDelete, RecordID: id, Err: err})

	if err != nil {
		c.mu.Lock()
		c.notice = noticeDelFailed
		c.logger.Error("delete failed", zap.Int64("record_id", id), zap.Error(err))
		return c.finishFailedMutationLocked(ctx, err)
	}

	c.mu.Lock()
	c.stale = false
	ticket := c.beginFetchLocked()
	c.mu.Unlock()
	if fetchErr := c.runFetch(ctx, ticket); fetchErr != nil {
		c.logger.Warn("refetch after delete failed", zap.Error(fetchErr))
	}
	return nil
}

// finishFailedMutationLocked leaves the Mutating state and, if the filter
// changed meanwhile, fetches the new scope. It releases c.mu.
func (c *Coordinator[R]) finishFailedMutationLocked(ctx context.Context, err error) error {
	if !c.stale {
		c.settleLocked()
		c.mu.Unlock()
		return err
	}
	c.stale = false
	notice := c.notice
	ticket := c.beginFetchLocked()
	c.notice = notice
	c.mu.Unlock()
	if fetchErr := c.runFetch(ctx, ticket); fetchErr != nil {
		c.logger.Warn("refetch of new filter failed", zap.Error(fetchErr))
	}
	return err
}

func (c *Coordinator[R]) openForm(ctx context.Context, mode FormMode, record *R) error {
	c.mu.Lock()
	if c.state == StateMutating {
		c.mu.Unlock()
		return c.busy()
	}
	c.formSeq++
	seq := c.formSeq
	c.form = Form[R]{Open: true, Mode: mode, Record: record, Errors: appErrors.FieldErrors{}}
	filter := c.filter.clone()
	c.mu.Unlock()

	optionSource, ok := c.source.(OptionSource)
	if !ok {
		return nil
	}
	opts, err := optionSource.FormOptions(ctx, filter)
	if err != nil {
		c.logger.Warn("form options unavailable", zap.Error(err))
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.formSeq == seq && c.form.Open {
		c.form.Options = opts.Options
		c.form.Meta = opts.Meta
	}
	return nil
}

func (c *Coordinator[R]) guardFetchLocked() error {
	if c.state == StateMutating {
		return c.busy()
	}
	if c.loadingTag != "" && c.loadingTag == c.filter.Tag() {
		return c.busy()
	}
	return nil
}

// guardMutationLocked rejects a mutation while any fetch or mutation of the
// screen is in flight.
func (c *Coordinator[R]) guardMutationLocked() error {
	if c.state == StateMutating || c.loadingTag != "" {
		return c.busy()
	}
	return nil
}

func (c *Coordinator[R]) beginFetchLocked() fetchTicket {
	c.gen++
	t := fetchTicket{gen: c.gen, tag: c.filter.Tag(), filter: c.filter.clone()}
	c.loadingTag = t.tag
	c.state = StateLoading
	c.notice = ""
	return t
}

// runFetch applies the result only when no later fetch was issued and the
// filter still matches the one the fetch was tagged with.
func (c *Coordinator[R]) runFetch(ctx context.Context, t fetchTicket) error {
	rows, err := c.source.Fetch(ctx, t.filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.gen != c.gen || t.tag != c.filter.Tag() {
		c.logger.Debug("discarding superseded fetch", zap.String("filter", t.tag))
		return nil
	}
	c.loadingTag = ""
	c.fetchErr = err
	if err != nil {
		c.notice = noticeLoadFailed
		c.logger.Error("fetch failed", zap.String("filter", t.tag), zap.Error(err))
	} else {
		if rows == nil {
			rows = make([]R, 0)
		}
		c.rows = rows
		c.loaded = true
	}
	if c.state != StateMutating {
		c.settleLocked()
	}
	return err
}

func (c *Coordinator[R]) settleLocked() {
	switch {
	case c.loadingTag != "":
		c.state = StateLoading
	case c.fetchErr != nil:
		c.state = StateError
	case c.loaded:
		c.state = StateReady
	default:
		c.state = StateIdle
	}
}

func (c *Coordinator[R]) findLocked(key string) (R, bool) {
	for _, row := range c.rows {
		if row.RowKey() == key {
			return row, true
		}
	}
	var zero R
	return zero, false
}

func (c *Coordinator[R]) formLocked() Form[R] {
	f := c.form
	f.Errors = c.form.Errors.Clone()
	if f.Record != nil {
		record := *f.Record
		f.Record = &record
	}
	return f
}

func (c *Coordinator[R]) notify(ctx context.Context, event MutationEvent) {
	if c.observer != nil {
		c.observer.MutationCompleted(ctx, event)
	}
}

func (c *Coordinator[R]) busy() error {
	return appErrors.Clone(appErrors.ErrBusy, fmt.Sprintf("screen %s is busy", c.name))
}

// Search returns the rows whose display fields contain term, ignoring case.
// An empty term returns every row.
func Search[R models.Row](rows []R, term string) []R {
	needle := strings.ToLower(term)
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if needle == "" || matches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row models.Row, needle string) bool {
	for _, field := range row.SearchFields() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
