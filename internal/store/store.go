// Package store persists users, mindmap documents, and background tasks.
//
// Two implementations share the same semantics: [MongoStore] backs the
// service in production and [MemoryStore] backs tests and local demo
// runs. Records use string UUIDs as primary keys, receive UTC timestamps
// on create, and documents carry a version counter bumped on every
// update. User emails and usernames are unique.
package store

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

var (
	// ErrNotFound is returned when no record matches the given ID
	// (and owner, for owner-scoped operations).
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned by [Users.Create] when another account
	// already registered the email address.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned by [Users.Create] and [Users.Update]
	// when another account already holds the username.
	ErrUsernameTaken = errors.New("username already taken")
)

// =============================================================================
// Records
// =============================================================================

// User is a registered account. The password hash is stored but never
// serialized to JSON.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	Username       string    `json:"username" bson:"username"`
	FullName       string    `json:"full_name,omitempty" bson:"full_name,omitempty"`
	HashedPassword string    `json:"-" bson:"hashed_password"`
	IsActive       bool      `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TaskStatus tracks a background task through its lifecycle.
type TaskStatus string

// Task lifecycle states. Pending tasks are queued, running tasks report
// progress, and completed or failed tasks are terminal.
const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskType identifies what a background task computes.
type TaskType string

// Task types the worker knows how to execute.
const (
	TaskGenerateMindmap TaskType = "generate_mindmap"
	TaskExpandNode      TaskType = "expand_node"
)

// Task records one background job: its input, progress, and outcome.
// Error is set only on failed tasks, CompletedAt only on terminal ones.
type Task struct {
	ID          string         `json:"id" bson:"_id"`
	UserID      string         `json:"user_id" bson:"user_id"`
	Type        TaskType       `json:"task_type" bson:"task_type"`
	Status      TaskStatus     `json:"status" bson:"status"`
	Progress    int            `json:"progress" bson:"progress"`
	Input       map[string]any `json:"input_data,omitempty" bson:"input_data,omitempty"`
	Result      map[string]any `json:"result,omitempty" bson:"result,omitempty"`
	Error       string         `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Clone returns a copy of the task that shares no mutable state with the
// original. Input and Result values are copied at the top level.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Input = maps.Clone(t.Input)
	out.Result = maps.Clone(t.Result)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

// MindmapStats summarizes a user's mindmap activity for the usage report.
type MindmapStats struct {
	Total   int64 `json:"total_mindmaps"`
	Monthly int64 `json:"monthly_mindmaps"`
}

// =============================================================================
// Interfaces
// =============================================================================

// Users stores registered accounts.
type Users interface {
	// Create inserts a new user, assigning ID and timestamps. Returns
	// ErrEmailTaken or ErrUsernameTaken on uniqueness violations.
	Create(ctx context.Context, u *User) error

	// ByID returns the user with the given ID, or ErrNotFound.
	ByID(ctx context.Context, id string) (*User, error)

	// ByEmail returns the user with the given email, or ErrNotFound.
	ByEmail(ctx context.Context, email string) (*User, error)

	// Update replaces the stored user and bumps UpdatedAt. Returns
	// ErrUsernameTaken if the new username belongs to another account.
	Update(ctx context.Context, u *User) error
}

// Mindmaps stores mindmap documents.
type Mindmaps interface {
	// Create inserts a new document, assigning ID, timestamps, and
	// version 1.
	Create(ctx context.Context, doc *mindmap.Document) error

	// Get returns the document with the given ID regardless of owner,
	// or ErrNotFound. Callers enforce visibility.
	Get(ctx context.Context, id string) (*mindmap.Document, error)

	// Update replaces the document matching both ID and UserID, bumping
	// UpdatedAt and Version. Returns ErrNotFound when no owned document
	// matches.
	Update(ctx context.Context, doc *mindmap.Document) error

	// Delete removes the document owned by userID, or returns ErrNotFound.
	Delete(ctx context.Context, id, userID string) error

	// ListByUser returns the user's documents sorted by creation time,
	// newest first.
	ListByUser(ctx context.Context, userID string, skip, limit int64) ([]*mindmap.Document, error)

	// SearchPublic returns public documents matching the query text,
	// newest first.
	SearchPublic(ctx context.Context, query string, limit int64) ([]*mindmap.Document, error)

	// Stats counts the user's documents in total and since monthStart.
	Stats(ctx context.Context, userID string, monthStart time.Time) (MindmapStats, error)
}

// Tasks stores background task records.
type Tasks interface {
	// Create inserts a new task, assigning ID and timestamps.
	Create(ctx context.Context, t *Task) error

	// Get returns the task owned by userID, or ErrNotFound.
	Get(ctx context.Context, id, userID string) (*Task, error)

	// Update replaces the task record by ID and bumps UpdatedAt, setting
	// CompletedAt the first time a terminal status is stored. The worker
	// calls this, so no owner filter applies.
	Update(ctx context.Context, t *Task) error

	// Delete removes the task owned by userID, or returns ErrNotFound.
	Delete(ctx context.Context, id, userID string) error

	// ListByUser returns the user's tasks sorted by creation time,
	// newest first. An empty status matches all statuses.
	ListByUser(ctx context.Context, userID string, status TaskStatus, skip, limit int64) ([]*Task, error)
}

// Store bundles the three collections with connection lifecycle.
type Store interface {
	Users() Users
	Mindmaps() Mindmaps
	Tasks() Tasks

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// =============================================================================
// Shared Helpers
// =============================================================================

// newID returns a fresh record identifier.
func newID() string { return uuid.NewString() }

// stampUser fills create-time fields on a new user record.
func stampUser(u *User, now time.Time) {
	if u.ID == "" {
		u.ID = newID()
	}
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
}

// stampDocument fills create-time fields on a new document.
func stampDocument(d *mindmap.Document, now time.Time) {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	d.CreatedAt = now
	d.UpdatedAt = now
}

// stampTask fills create-time fields on a new task record.
func stampTask(t *Task, now time.Time) {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	t.CreatedAt = now
	t.UpdatedAt = now
}
