package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
)

// Requester is the subset of the transport client used by repositories.
type Requester interface {
	Request(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error)
	Decode(raw json.RawMessage, out interface{}) error
}

// EntityRepository performs CRUD against one entity kind of the course API.
type EntityRepository[T any] struct {
	client Requester
	def    models.EntityDef
}

// NewEntityRepository constructs an EntityRepository for kind.
func NewEntityRepository[T any](client Requester, registry *models.Registry, kind models.EntityKind) (*EntityRepository[T], error) {
	def, ok := registry.Lookup(kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown entity kind %q", kind))
	}
	return &EntityRepository[T]{client: client, def: def}, nil
}

// Kind returns the entity kind served by the repository.
func (r *EntityRepository[T]) Kind() models.EntityKind {
	return r.def.Kind
}

// Def returns the routing record of the entity.
func (r *EntityRepository[T]) Def() models.EntityDef {
	return r.def
}

// List returns every record of the entity. The collection may arrive bare or
// wrapped in the entity's envelope key; a missing key yields an empty list.
func (r *EntityRepository[T]) List(ctx context.Context) ([]T, error) {
	raw, err := r.client.Request(ctx, http.MethodGet, r.def.ListPath(), nil)
	if err != nil {
		return nil, err
	}
	items, err := unwrapList(raw, r.def.ListKey)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if items == nil {
		return out, nil
	}
	if err := r.client.Decode(items, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

// Get returns the record identified by id.
func (r *EntityRepository[T]) Get(ctx context.Context, id int64) (*T, error) {
	raw, err := r.client.Request(ctx, http.MethodGet, r.def.ItemPath(id), nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d not found", r.def.Kind, id))
	}
	return r.decodeItem(raw)
}

// Create stores a new record. payload may be a typed entity, a map or a
// *transport.FormData; the transport picks the encoding.
func (r *EntityRepository[T]) Create(ctx context.Context, payload interface{}) (*T, error) {
	raw, err := r.client.Request(ctx, http.MethodPost, r.def.StorePath(), payload)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return r.decodeItem(raw)
}

// Update modifies the record identified by id. The course API expects POST.
func (r *EntityRepository[T]) Update(ctx context.Context, id int64, payload interface{}) (*T, error) {
	raw, err := r.client.Request(ctx, http.MethodPost, r.def.UpdatePath(id), payload)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return r.decodeItem(raw)
}

// Delete removes the record identified by id.
func (r *EntityRepository[T]) Delete(ctx context.Context, id int64) error {
	_, err := r.client.Request(ctx, http.MethodDelete, r.def.DeletePath(id), nil)
	return err
}

// ListByRelation fetches the relation-scoped view of the entity into out,
// which is validated against its schema.
func (r *EntityRepository[T]) ListByRelation(ctx context.Context, rel models.Relation, parentID int64, out interface{}) error {
	path, ok := r.def.RelationPath(rel, parentID)
	if !ok {
		return appErrors.Clone(appErrors.ErrUnsupportedRelation, fmt.Sprintf("%s cannot be listed by %s", r.def.Kind, rel))
	}
	raw, err := r.client.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if raw == nil {
		return appErrors.Decode(fmt.Errorf("%s: empty body", path))
	}
	return r.client.Decode(raw, out)
}

func (r *EntityRepository[T]) decodeItem(raw json.RawMessage) (*T, error) {
	var out T
	if err := r.client.Decode(unwrapItem(raw, r.def.ItemKey), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// unwrapList extracts the collection from a list response. A nil result means
// the response carried no collection.
func unwrapList(raw json.RawMessage, key string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, appErrors.Decode(errors.New("list response is neither an array nor an object"))
	}
	items, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(items), []byte("null")) {
		return nil, nil
	}
	return items, nil
}

// unwrapItem returns the object under key when the response wraps it,
// otherwise the response itself.
func unwrapItem(raw json.RawMessage, key string) json.RawMessage {
	if key == "" {
		return raw
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	inner, ok := envelope[key]
	if !ok {
		return raw
	}
	inner = bytes.TrimSpace(inner)
	if len(inner) == 0 || inner[0] != '{' {
		return raw
	}
	return inner
}
