// Package session is the boundary between transports and the refinement core.
//
// A Manager issues short session ids, keeps every session of the process in memory, and opens
// at most one stream per session. Transports either consume the stream themselves (Start then
// Open), run a session synchronously (RunToCompletion), or hand it to a background task whose
// output is recorded and broadcast through the Hub (Launch).
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/bridge"
	"github.com/rickchristie/refine/controller"
	"github.com/rickchristie/refine/hooks"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session: not found")

	// ErrAlreadyOpened is returned when a session's stream was opened before.
	ErrAlreadyOpened = errors.New("session: stream already opened")

	// ErrShutdown is returned once the manager is shutting down.
	ErrShutdown = errors.New("session: manager is shut down")
)

// idLength is the number of hex characters of a session id.
const idLength = 8

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Handle identifies a started session.
type Handle struct {
	ID        string        `json:"id"`
	Subject   string        `json:"subject"`
	Config    refine.Config `json:"config"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Info describes a session at one point in time.
type Info struct {
	Handle

	Status Status                   `json:"status"`
	Rounds int                      `json:"rounds"`
	Reason refine.TerminationReason `json:"reason,omitempty"`
	Error  string                   `json:"error,omitempty"`
	Draft  refine.Draft             `json:"draft"`
}

// Output is one recorded stream event of a background task.
type Output struct {
	TaskID    string        `json:"taskId"`
	Agent     refine.Source `json:"agent"`
	Round     int           `json:"round"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
}

// entry is the stored state of one session. Guarded by its own lock.
type entry struct {
	mu      sync.Mutex
	handle  Handle
	status  Status
	opened  bool
	rounds  int
	reason  refine.TerminationReason
	err     error
	draft   refine.Draft
	outputs []Output
}

func (e *entry) info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	info := Info{
		Handle: e.handle,
		Status: e.status,
		Rounds: e.rounds,
		Reason: e.reason,
		Draft:  e.draft.Clone(),
	}
	if e.err != nil {
		info.Error = e.err.Error()
	}
	return info
}

// Manager owns the sessions of one process.
type Manager struct {
	exec   refine.RoundExecutor
	hooks  *hooks.Registry
	logger *zap.Logger
	hub    *Hub

	mu       sync.RWMutex
	sessions map[string]*entry

	baseCtx  context.Context
	cancel   context.CancelFunc
	tasks    sync.WaitGroup
	shutdown bool
}

// NewManager creates a Manager running every session against exec. The executor is shared
// by all sessions, so it must be safe for concurrent use.
func NewManager(exec refine.RoundExecutor) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		exec:     exec,
		hooks:    hooks.NewRegistry(),
		logger:   zap.NewNop(),
		hub:      NewHub(),
		sessions: make(map[string]*entry),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// WithHooks sets hooks attached to every session. Returns the manager for chaining.
func (m *Manager) WithHooks(h *hooks.Registry) *Manager {
	m.hooks = h
	return m
}

// WithLogger sets the logger. Returns the manager for chaining.
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.logger = logger
		m.hub.WithLogger(logger)
	}
	return m
}

// Hub returns the broadcast hub background tasks publish to.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// Start registers a new session on subject and returns its handle. The session does not run
// until its stream is opened.
func (m *Manager) Start(subject string, cfg refine.Config) (*Handle, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: empty subject", refine.ErrInvalidConfig)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return nil, ErrShutdown
	}

	id := m.newIDLocked()
	h := Handle{
		ID:        id,
		Subject:   subject,
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[id] = &entry{
		handle: h,
		status: StatusPending,
		draft:  refine.Draft{Sections: []refine.Section{}},
	}
	m.logger.Debug("session started", zap.String("session", id))
	return &h, nil
}

func (m *Manager) newIDLocked() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
		if _, taken := m.sessions[id]; !taken {
			return id
		}
	}
}

// Open starts the session's refinement and returns its stream. A session can be opened once;
// later calls return ErrAlreadyOpened. The caller must Close the stream.
func (m *Manager) Open(ctx context.Context, id string) (*bridge.Stream, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.opened {
		e.mu.Unlock()
		return nil, ErrAlreadyOpened
	}
	e.opened = true
	e.status = StatusRunning
	h := e.handle
	e.mu.Unlock()

	logger := m.logger.With(zap.String("session", id))
	ctrl := controller.New(m.exec, h.Config).
		WithHooks(m.hooks.With(&entryHook{entry: e})).
		WithLogger(logger)
	return bridge.Open(ctx, ctrl, h.Subject, bridge.WithLogger(logger)), nil
}

// RunToCompletion runs a session on subject synchronously, without a stream, and returns its
// final result.
func (m *Manager) RunToCompletion(
	ctx context.Context,
	subject string,
	cfg refine.Config,
) (controller.Result, error) {
	h, err := m.Start(subject, cfg)
	if err != nil {
		return controller.Result{}, err
	}
	e, err := m.lookup(h.ID)
	if err != nil {
		return controller.Result{}, err
	}

	e.mu.Lock()
	e.opened = true
	e.status = StatusRunning
	e.mu.Unlock()

	ctrl := controller.New(m.exec, h.Config).
		WithHooks(m.hooks.With(&entryHook{entry: e})).
		WithLogger(m.logger.With(zap.String("session", h.ID)))
	return ctrl.Run(ctx, h.Subject)
}

// Launch starts a session in a background task. The task records every stream event as an
// Output and publishes it on the Hub, along with status and system messages. It stops when
// the session ends or the manager shuts down.
func (m *Manager) Launch(subject string, cfg refine.Config) (*Handle, error) {
	h, err := m.Start(subject, cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil, ErrShutdown
	}
	m.tasks.Add(1)
	m.mu.Unlock()

	stream, err := m.Open(m.baseCtx, h.ID)
	if err != nil {
		m.tasks.Done()
		return nil, err
	}

	m.hub.Publish(Message{
		Type:    MessageSystem,
		TaskID:  h.ID,
		Content: "New task received: " + h.Subject,
	})
	m.hub.Publish(Message{Type: MessageTaskStatus, TaskID: h.ID, Status: StatusRunning})

	go func() {
		defer m.tasks.Done()
		m.drain(h.ID, stream)
	}()
	return h, nil
}

func (m *Manager) drain(id string, stream *bridge.Stream) {
	defer stream.Close()

	e, err := m.lookup(id)
	if err != nil {
		return
	}
	for ev, err := range stream.All(m.baseCtx) {
		if err != nil {
			m.logger.Debug("task stream interrupted", zap.String("session", id), zap.Error(err))
			break
		}
		out := Output{
			TaskID:    id,
			Agent:     ev.Source,
			Round:     ev.Round,
			Content:   ev.Payload,
			Timestamp: time.Now().UTC(),
		}
		e.mu.Lock()
		e.outputs = append(e.outputs, out)
		e.mu.Unlock()

		m.hub.Publish(Message{
			Type:      MessageAgentOutput,
			TaskID:    id,
			Agent:     ev.Source,
			Round:     ev.Round,
			Content:   ev.Payload,
			Timestamp: out.Timestamp,
		})
	}

	result, err := stream.Result()
	status, content := StatusCompleted, fmt.Sprintf("Task completed: %s after %d rounds",
		result.Reason, result.Rounds)
	if err != nil {
		status, content = StatusFailed, "Task failed: "+err.Error()
	}
	m.hub.Publish(Message{Type: MessageTaskStatus, TaskID: id, Status: status})
	m.hub.Publish(Message{Type: MessageSystem, TaskID: id, Content: content})
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (Info, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	return e.info(), nil
}

// List returns every session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.info())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Outputs returns the events a background task recorded so far.
func (m *Manager) Outputs(id string) ([]Output, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Output(nil), e.outputs...), nil
}

// Shutdown cancels every background task and waits for them to return, or for ctx to be
// done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// -----------------------------------------------------------------------------
// Entry Hook
// -----------------------------------------------------------------------------

// entryHook keeps a session entry in step with its controller.
type entryHook struct {
	entry *entry
}

func (h *entryHook) OnDraftUpdated(_ context.Context, e refine.DraftUpdatedEvent) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()
	h.entry.draft = e.Draft
	h.entry.rounds = e.Round
}

func (h *entryHook) OnAfterRound(_ context.Context, e refine.AfterRoundEvent) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()
	h.entry.rounds = e.Round
}

func (h *entryHook) OnTermination(_ context.Context, e refine.TerminationEvent) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()
	h.entry.rounds = e.Rounds
	h.entry.reason = e.Reason
	h.entry.draft = e.Draft
	h.entry.err = e.Err
	h.entry.status = StatusCompleted
	if e.Err != nil {
		h.entry.status = StatusFailed
	}
}

var (
	_ refine.DraftUpdatedHook = (*entryHook)(nil)
	_ refine.AfterRoundHook   = (*entryHook)(nil)
	_ refine.TerminationHook  = (*entryHook)(nil)
)
