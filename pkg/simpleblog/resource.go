package simpleblog

import (
	"context"
	"fmt"
	"log/slog"
)

// Resource orchestrates the CRUD operations for one entity type over a Store.
// It holds no entity state of its own; every operation reads fresh store
// state for its decisions.
type Resource[E Entity] struct {
	name      string
	store     Store[E]
	validator Validator[E]
	notifier  Notifier
}

// ResourceOption represents a functional option for configuring a Resource.
type ResourceOption[E Entity] func(*Resource[E])

// WithValidator replaces the default struct-tag validator.
func WithValidator[E Entity](v Validator[E]) ResourceOption[E] {
	return func(r *Resource[E]) {
		r.validator = v
	}
}

// WithNotifier sets the notification sink for mutations.
func WithNotifier[E Entity](n Notifier) ResourceOption[E] {
	return func(r *Resource[E]) {
		r.notifier = n
	}
}

// NewResource creates a resource named after its entity type (e.g. "blog")
// with the given store and options.
func NewResource[E Entity](name string, store Store[E], opts ...ResourceOption[E]) (*Resource[E], error) {
	if name == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	r := &Resource[E]{
		name:      name,
		store:     store,
		validator: NewValidator[E](),
		notifier:  NewNoopNotifier(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Name returns the entity name the resource was created with.
func (r *Resource[E]) Name() string { return r.name }

// Create validates and inserts a new entity. The entity must not carry an id;
// the store assigns one. The created entity, id included, is returned.
func (r *Resource[E]) Create(ctx context.Context, entity E) (E, error) {
	var zero E

	if entity.EntityID() != "" {
		return zero, &ResourceError{Entity: r.name, Op: "create", Err: ErrIdentityConflict}
	}
	if violations := r.validator.Validate(ctx, entity); len(violations) > 0 {
		return zero, &ValidationError{Entity: r.name, Violations: violations}
	}

	created, err := r.store.Insert(ctx, entity)
	if err != nil {
		return zero, &ResourceError{Entity: r.name, Op: "create", Err: err}
	}

	r.notify(ctx, NotificationCreated, created.EntityID())
	return created, nil
}

// Update validates and fully replaces the record matching the entity's id.
// Every field of the stored record is overwritten by the supplied entity;
// partial patching is not supported. Updating an id that is not in the store
// fails with ErrNotFound.
func (r *Resource[E]) Update(ctx context.Context, entity E) (E, error) {
	var zero E

	id := entity.EntityID()
	if id == "" {
		return zero, &ResourceError{Entity: r.name, Op: "update", Err: ErrIdentityRequired}
	}
	if violations := r.validator.Validate(ctx, entity); len(violations) > 0 {
		return zero, &ValidationError{Entity: r.name, Violations: violations}
	}

	found, err := r.store.Replace(ctx, id, entity)
	if err != nil {
		return zero, &ResourceError{Entity: r.name, ID: id, Op: "update", Err: err}
	}
	if !found {
		return zero, &ResourceError{Entity: r.name, ID: id, Op: "update", Err: ErrNotFound}
	}

	r.notify(ctx, NotificationUpdated, id)
	return entity, nil
}

// List opens a lazy cursor over the collection. The caller owns the cursor
// and must close it; each element is produced only when pulled.
func (r *Resource[E]) List(ctx context.Context, opts ...ListOption) (Cursor[E], error) {
	cursor, err := r.store.FindAll(ctx, opts...)
	if err != nil {
		return nil, &ResourceError{Entity: r.name, Op: "list", Err: err}
	}
	return cursor, nil
}

// ListAll materializes the same store read List opens into a slice.
func (r *Resource[E]) ListAll(ctx context.Context, opts ...ListOption) ([]E, error) {
	cursor, err := r.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	entities, err := Collect(cursor)
	if err != nil {
		return nil, &ResourceError{Entity: r.name, Op: "list", Err: err}
	}
	return entities, nil
}

// Get returns the entity with the given id, or ErrNotFound. A malformed id is
// indistinguishable from an absent one.
func (r *Resource[E]) Get(ctx context.Context, id string) (E, error) {
	var zero E

	entity, err := r.store.FindByID(ctx, id)
	if err != nil {
		return zero, &ResourceError{Entity: r.name, ID: id, Op: "get", Err: err}
	}
	return entity, nil
}

// Delete removes the entity with the given id. Deletion has no existence
// precondition: deleting an absent id succeeds and still notifies, unlike
// Update and Get which report ErrNotFound.
func (r *Resource[E]) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteByID(ctx, id); err != nil {
		return &ResourceError{Entity: r.name, ID: id, Op: "delete", Err: err}
	}

	r.notify(ctx, NotificationDeleted, id)
	return nil
}

// notify fires the mutation notification after the store effect committed.
// Delivery failures never surface to the caller.
func (r *Resource[E]) notify(ctx context.Context, kind NotificationKind, id string) {
	if err := r.notifier.Notify(ctx, kind, r.name, id); err != nil {
		slog.DebugContext(ctx, "Notification dropped", "entity", r.name, "kind", string(kind), "id", id, "error", err)
	}
}
