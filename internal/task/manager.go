// Package task runs mindmap generation work in the background.
//
// The HTTP surface schedules work through [Manager.Generate] and
// [Manager.Expand] and answers immediately with the pending task record;
// clients poll the task endpoints for progress. A weighted semaphore
// bounds how many tasks execute at once, so a burst of generation
// requests queues instead of stampeding the model provider. Progress
// milestones and terminal states are persisted through the task store
// after every transition, making the record the single source of truth
// for pollers.
package task

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/pengpongpang/deepbrain/internal/llm"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
	"github.com/pengpongpang/deepbrain/pkg/observability"
)

// DefaultWorkers bounds concurrent task execution when Options leaves
// Workers zero.
const DefaultWorkers = 4

// Options configures a Manager.
type Options struct {
	// Store persists tasks and the documents they produce.
	Store store.Store

	// LLM produces outlines and expansions.
	LLM llm.Client

	// Layout parameterizes the positioning pass applied to generated
	// documents.
	Layout layout.Options

	// Logger receives progress-persistence warnings. Nil means silent.
	Logger *log.Logger

	// Workers bounds concurrent executions. Zero means DefaultWorkers.
	Workers int
}

// Manager schedules and executes background tasks.
type Manager struct {
	store  store.Store
	llm    llm.Client
	layout layout.Options
	logger *log.Logger

	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewManager creates a manager with its own execution context, detached
// from any request. Layout options are validated once here.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("task: store is required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("task: llm client is required")
	}
	if err := opts.Layout.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   opts.Store,
		llm:     opts.LLM,
		layout:  opts.Layout,
		logger:  opts.Logger,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		baseCtx: ctx,
		cancel:  cancel,
	}, nil
}

// Shutdown waits for in-flight tasks to finish. When ctx expires first,
// the execution context is cancelled so stragglers fail fast and record
// a failed status instead of disappearing mid-run.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}

// Generate schedules a full mindmap generation for userID and returns
// the pending task record.
func (m *Manager) Generate(ctx context.Context, userID string, req llm.GenerateRequest) (*store.Task, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := &store.Task{
		UserID: userID,
		Type:   store.TaskGenerateMindmap,
		Input:  taskInput(req),
	}
	if err := m.store.Tasks().Create(ctx, t); err != nil {
		return nil, err
	}

	// The worker mutates t as it progresses; callers get a snapshot of
	// the pending record.
	pending := t.Clone()
	m.spawn(t, func(ctx context.Context) (map[string]any, error) {
		return m.runGenerate(ctx, t, userID, req)
	})
	return pending, nil
}

// ExpandInput names the node to expand and how.
type ExpandInput struct {
	MindmapID      string `json:"mindmap_id"`
	NodeID         string `json:"node_id"`
	ExpansionTopic string `json:"expansion_topic"`
	Context        string `json:"context,omitempty"`
	MaxChildren    int    `json:"max_children,omitempty"`
}

// SetDefaults fills zero fields with the service defaults.
func (in *ExpandInput) SetDefaults() {
	if in.MaxChildren == 0 {
		in.MaxChildren = llm.DefaultMaxChildren
	}
}

// Validate checks the input bounds. Call SetDefaults first.
func (in *ExpandInput) Validate() error {
	if in.MindmapID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "mindmap id cannot be empty")
	}
	if err := errors.ValidateNodeID(in.NodeID); err != nil {
		return err
	}
	if strings.TrimSpace(in.ExpansionTopic) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "expansion topic cannot be empty")
	}
	return errors.ValidateMaxChildren(in.MaxChildren)
}

// Expand schedules a node expansion inside an existing document and
// returns the pending task record. Ownership is re-checked inside the
// worker, so a document deleted between scheduling and execution fails
// the task rather than corrupting anything.
func (m *Manager) Expand(ctx context.Context, userID string, in ExpandInput) (*store.Task, error) {
	in.SetDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t := &store.Task{
		UserID: userID,
		Type:   store.TaskExpandNode,
		Input:  taskInput(in),
	}
	if err := m.store.Tasks().Create(ctx, t); err != nil {
		return nil, err
	}

	pending := t.Clone()
	m.spawn(t, func(ctx context.Context) (map[string]any, error) {
		return m.runExpand(ctx, t, userID, in)
	})
	return pending, nil
}

// =============================================================================
// Execution
// =============================================================================

// spawn queues one task execution. The task stays pending until a
// worker slot frees up.
func (m *Manager) spawn(t *store.Task, run func(ctx context.Context) (map[string]any, error)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.sem.Acquire(m.baseCtx, 1); err != nil {
			m.fail(context.Background(), t, err)
			return
		}
		defer m.sem.Release(1)
		m.execute(t, run)
	}()
}

func (m *Manager) execute(t *store.Task, run func(ctx context.Context) (map[string]any, error)) {
	ctx := m.baseCtx
	hooks := observability.Tasks()
	hooks.OnTaskStart(ctx, string(t.Type), t.ID)
	start := time.Now()

	m.progress(ctx, t, 10)

	result, err := run(ctx)
	if err != nil {
		m.fail(ctx, t, err)
		hooks.OnTaskDone(ctx, string(t.Type), t.ID, string(store.StatusFailed), time.Since(start))
		return
	}

	t.Status = store.StatusCompleted
	t.Progress = 100
	t.Result = result
	m.persist(ctx, t)
	hooks.OnTaskDone(ctx, string(t.Type), t.ID, string(store.StatusCompleted), time.Since(start))
}

func (m *Manager) runGenerate(ctx context.Context, t *store.Task, userID string, req llm.GenerateRequest) (map[string]any, error) {
	m.progress(ctx, t, 30)
	m.progress(ctx, t, 50)

	outline, err := m.llm.GenerateMindmap(ctx, req)
	if err != nil {
		return nil, err
	}
	m.progress(ctx, t, 70)

	doc, err := llm.BuildDocument(outline, m.layout)
	if err != nil {
		return nil, err
	}
	doc.UserID = userID
	if err := m.store.Mindmaps().Create(ctx, doc); err != nil {
		return nil, err
	}
	m.progress(ctx, t, 90)

	return map[string]any{"mindmap_id": doc.ID}, nil
}

func (m *Manager) runExpand(ctx context.Context, t *store.Task, userID string, in ExpandInput) (map[string]any, error) {
	m.progress(ctx, t, 30)

	doc, err := m.loadOwned(ctx, in.MindmapID, userID)
	if err != nil {
		return nil, err
	}

	label, ok := nodeLabel(doc, in.NodeID)
	if !ok {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "Node not found")
	}

	m.progress(ctx, t, 50)
	children, err := m.llm.ExpandNode(ctx, label, llm.ExpandRequest{
		ExpansionTopic: in.ExpansionTopic,
		Context:        in.Context,
		MaxChildren:    in.MaxChildren,
	})
	if err != nil {
		return nil, err
	}

	f, err := doc.Forest()
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(engine.Options{Layout: m.layout})
	if err != nil {
		return nil, err
	}
	if _, err := eng.Initialize(f.Nodes(), f.Edges(), false); err != nil {
		return nil, err
	}
	eng.RestoreCollapse(doc.Collapsed)

	added, err := llm.AppendBranches(eng, in.NodeID, children)
	if err != nil {
		return nil, err
	}

	doc.SetRaw(eng.Raw())
	if err := m.store.Mindmaps().Update(ctx, doc); err != nil {
		return nil, err
	}
	m.progress(ctx, t, 90)

	newNodes, newEdges := pickInserted(doc, added)
	return map[string]any{
		"mindmap_id": doc.ID,
		"new_nodes":  newNodes,
		"new_edges":  newEdges,
	}, nil
}

func (m *Manager) loadOwned(ctx context.Context, id, userID string) (*mindmap.Document, error) {
	doc, err := m.store.Mindmaps().Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.New(errors.ErrCodeMindmapNotFound, "Mindmap not found")
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.New(errors.ErrCodeMindmapNotFound, "Mindmap not found")
	}
	return doc, nil
}

// =============================================================================
// Persistence helpers
// =============================================================================

// progress moves a task to running at the given milestone.
func (m *Manager) progress(ctx context.Context, t *store.Task, p int) {
	t.Status = store.StatusRunning
	t.Progress = p
	m.persist(ctx, t)
	observability.Tasks().OnTaskProgress(ctx, string(t.Type), t.ID, p)
}

// fail records a terminal failure. The write uses a detached context
// because the failure cause may be the context itself.
func (m *Manager) fail(ctx context.Context, t *store.Task, cause error) {
	t.Status = store.StatusFailed
	t.Progress = 0
	t.Error = fmt.Sprintf("Task execution failed: %v", cause)
	m.persist(context.WithoutCancel(ctx), t)
}

func (m *Manager) persist(ctx context.Context, t *store.Task) {
	if err := m.store.Tasks().Update(ctx, t); err != nil {
		m.logger.Warn("persisting task state", "task", t.ID, "status", t.Status, "error", err)
	}
}

// taskInput flattens a request into the stored input map.
func taskInput(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func nodeLabel(doc *mindmap.Document, nodeID string) (string, bool) {
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == nodeID {
			return doc.Nodes[i].DisplayLabel(), true
		}
	}
	return "", false
}

// pickInserted splits out the wire shapes of freshly inserted nodes and
// the edges that attach them, for the task result clients merge.
func pickInserted(doc *mindmap.Document, ids []string) ([]mindmap.Node, []mindmap.Edge) {
	inserted := make(map[string]bool, len(ids))
	for _, id := range ids {
		inserted[id] = true
	}

	newNodes := []mindmap.Node{}
	for _, n := range doc.Nodes {
		if inserted[n.ID] {
			newNodes = append(newNodes, n)
		}
	}
	newEdges := []mindmap.Edge{}
	for _, e := range doc.Edges {
		if inserted[e.Target] {
			newEdges = append(newEdges, e)
		}
	}
	return newNodes, newEdges
}
