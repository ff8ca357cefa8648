package simpleblog

import (
	"time"
)

// Entity is implemented by every record a Resource can manage. The id is a
// store-assigned opaque string; an empty id means the entity has not been
// persisted yet.
type Entity interface {
	EntityID() string
	SetEntityID(id string)
}

// NotificationKind is the domain type for mutation notifications.
type NotificationKind string

// Notification kind constants (typed).
const (
	NotificationCreated NotificationKind = "created"
	NotificationUpdated NotificationKind = "updated"
	NotificationDeleted NotificationKind = "deleted"
)

// Blog represents a blog owned by the application.
type Blog struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"required"`
	Handle string `json:"handle" validate:"required"`
}

func (b *Blog) EntityID() string      { return b.ID }
func (b *Blog) SetEntityID(id string) { b.ID = id }

// Post represents a single blog entry. Content is optional long-form text;
// Date is required and must be supplied by the client.
type Post struct {
	ID      string     `json:"id,omitempty"`
	Title   string     `json:"title" validate:"required"`
	Content string     `json:"content,omitempty"`
	Date    *time.Time `json:"date" validate:"required"`
}

func (p *Post) EntityID() string      { return p.ID }
func (p *Post) SetEntityID(id string) { p.ID = id }

// Tag represents a label that posts may reference.
type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

func (t *Tag) EntityID() string      { return t.ID }
func (t *Tag) SetEntityID(id string) { t.ID = id }
