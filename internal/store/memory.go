package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// MemoryStore is an in-process [Store] backed by maps. It is safe for
// concurrent use and returns copies, so callers can mutate results
// freely. Data does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]*User
	mindmaps map[string]*mindmap.Document
	tasks    map[string]*Task
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns an empty in-process store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[string]*User),
		mindmaps: make(map[string]*mindmap.Document),
		tasks:    make(map[string]*Task),
	}
}

// Users returns the user collection.
func (s *MemoryStore) Users() Users { return memoryUsers{s} }

// Mindmaps returns the mindmap collection.
func (s *MemoryStore) Mindmaps() Mindmaps { return memoryMindmaps{s} }

// Tasks returns the task collection.
func (s *MemoryStore) Tasks() Tasks { return memoryTasks{s} }

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close(context.Context) error { return nil }

// =============================================================================
// Users
// =============================================================================

type memoryUsers struct{ s *MemoryStore }

var _ Users = memoryUsers{}

func (m memoryUsers) Create(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, have := range m.s.users {
		if have.Email == u.Email {
			return ErrEmailTaken
		}
	}
	for _, have := range m.s.users {
		if have.Username == u.Username {
			return ErrUsernameTaken
		}
	}

	stampUser(u, m.s.now())
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m memoryUsers) ByID(_ context.Context, id string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memoryUsers) ByEmail(_ context.Context, email string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m memoryUsers) Update(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, other := range m.s.users {
		if id != u.ID && other.Username == u.Username {
			return ErrUsernameTaken
		}
	}

	u.UpdatedAt = m.s.now()
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

// =============================================================================
// Mindmaps
// =============================================================================

type memoryMindmaps struct{ s *MemoryStore }

var _ Mindmaps = memoryMindmaps{}

func (m memoryMindmaps) Create(_ context.Context, doc *mindmap.Document) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stampDocument(doc, m.s.now())
	m.s.mindmaps[doc.ID] = doc.Clone()
	return nil
}

func (m memoryMindmaps) Get(_ context.Context, id string) (*mindmap.Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	d, ok := m.s.mindmaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m memoryMindmaps) Update(_ context.Context, doc *mindmap.Document) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	have, ok := m.s.mindmaps[doc.ID]
	if !ok || have.UserID != doc.UserID {
		return ErrNotFound
	}

	doc.Version++
	doc.UpdatedAt = m.s.now()
	m.s.mindmaps[doc.ID] = doc.Clone()
	return nil
}

func (m memoryMindmaps) Delete(_ context.Context, id, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.mindmaps[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	delete(m.s.mindmaps, id)
	return nil
}

func (m memoryMindmaps) ListByUser(_ context.Context, userID string, skip, limit int64) ([]*mindmap.Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var docs []*mindmap.Document
	for _, d := range m.s.mindmaps {
		if d.UserID == userID {
			docs = append(docs, d)
		}
	}
	sortNewestFirst(docs, func(d *mindmap.Document) (time.Time, string) { return d.CreatedAt, d.ID })

	out := make([]*mindmap.Document, 0, len(docs))
	for _, d := range window(docs, skip, limit) {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (m memoryMindmaps) SearchPublic(_ context.Context, query string, limit int64) ([]*mindmap.Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	q := strings.ToLower(query)
	var docs []*mindmap.Document
	for _, d := range m.s.mindmaps {
		if !d.IsPublic {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			docs = append(docs, d)
		}
	}
	sortNewestFirst(docs, func(d *mindmap.Document) (time.Time, string) { return d.CreatedAt, d.ID })

	out := make([]*mindmap.Document, 0, len(docs))
	for _, d := range window(docs, 0, limit) {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (m memoryMindmaps) Stats(_ context.Context, userID string, monthStart time.Time) (MindmapStats, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var stats MindmapStats
	for _, d := range m.s.mindmaps {
		if d.UserID != userID {
			continue
		}
		stats.Total++
		if !d.CreatedAt.Before(monthStart) {
			stats.Monthly++
		}
	}
	return stats, nil
}

// =============================================================================
// Tasks
// =============================================================================

type memoryTasks struct{ s *MemoryStore }

var _ Tasks = memoryTasks{}

func (m memoryTasks) Create(_ context.Context, t *Task) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stampTask(t, m.s.now())
	m.s.tasks[t.ID] = t.Clone()
	return nil
}

func (m memoryTasks) Get(_ context.Context, id, userID string) (*Task, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	t, ok := m.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (m memoryTasks) Update(_ context.Context, t *Task) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tasks[t.ID]; !ok {
		return ErrNotFound
	}

	now := m.s.now()
	t.UpdatedAt = now
	if t.Status.Terminal() && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	m.s.tasks[t.ID] = t.Clone()
	return nil
}

func (m memoryTasks) Delete(_ context.Context, id, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	t, ok := m.s.tasks[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(m.s.tasks, id)
	return nil
}

func (m memoryTasks) ListByUser(_ context.Context, userID string, status TaskStatus, skip, limit int64) ([]*Task, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var tasks []*Task
	for _, t := range m.s.tasks {
		if t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		tasks = append(tasks, t)
	}
	sortNewestFirst(tasks, func(t *Task) (time.Time, string) { return t.CreatedAt, t.ID })

	out := make([]*Task, 0, len(tasks))
	for _, t := range window(tasks, skip, limit) {
		out = append(out, t.Clone())
	}
	return out, nil
}

// =============================================================================
// Helpers
// =============================================================================

// sortNewestFirst orders records by descending creation time, breaking
// ties by ID so pagination stays stable.
func sortNewestFirst[T any](s []T, key func(T) (time.Time, string)) {
	slices.SortFunc(s, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		if c := bt.Compare(at); c != 0 {
			return c
		}
		return cmp.Compare(aid, bid)
	})
}

// window applies skip and limit to a sorted slice. A non-positive limit
// means no cap.
func window[T any](s []T, skip, limit int64) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(s)) {
		return nil
	}
	s = s[skip:]
	if limit > 0 && limit < int64(len(s)) {
		s = s[:limit]
	}
	return s
}
