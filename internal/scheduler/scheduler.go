// Package scheduler saves dirty document sessions into the store on a cron
// schedule.
package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrajende/vdmlio/internal/store"
)

// DefaultSpec is the autosave schedule used when none is configured.
const DefaultSpec = "@every 1m"

// Session is what the autosaver needs from a document session. The
// editor's Modeler satisfies it.
type Session interface {
	ID() string
	Dirty() bool
	SaveXML(ctx context.Context, w io.Writer, pretty bool) error
}

// Autosaver writes a revision for every dirty session each time its
// schedule fires.
type Autosaver struct {
	store  store.Store
	parser cron.Parser
	logger *slog.Logger
	pretty bool

	mu       sync.Mutex
	cron     *cron.Cron
	sessions map[string]Session
	// pending holds exports whose revision could not be stored yet.
	pending map[string]string

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewAutosaver creates an autosaver writing into s.
func NewAutosaver(s store.Store, pretty bool, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Autosaver{
		store:    s,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:   logger.With("component", "autosave"),
		pretty:   pretty,
		sessions: make(map[string]Session),
		pending:  make(map[string]string),
		inflight: make(map[string]struct{}),
	}
}

// Add registers a session. A session with the same ID is replaced.
func (a *Autosaver) Add(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[s.ID()] = s
}

// Remove forgets the session id.
func (a *Autosaver) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
	delete(a.pending, id)
}

// Start runs SaveDirty on spec until ctx is done or Stop is called.
func (a *Autosaver) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron != nil {
		return fmt.Errorf("autosaver already started")
	}

	c := cron.New(cron.WithParser(a.parser))
	if _, err := c.AddFunc(spec, func() {
		if _, err := a.SaveDirty(ctx); err != nil {
			a.logger.Error("autosave failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("parse autosave schedule %q: %w", spec, err)
	}
	a.cron = c
	c.Start()
	a.logger.Info("autosave started", "schedule", spec)

	go func() {
		<-ctx.Done()
		_ = a.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running save to finish.
func (a *Autosaver) Stop() error {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}
	<-c.Stop().Done()
	a.logger.Info("autosave stopped")
	return nil
}

// SaveDirty stores a revision for every dirty session and retries exports
// left pending by an earlier store failure. It returns how many revisions
// were written and the first error met.
func (a *Autosaver) SaveDirty(ctx context.Context) (int, error) {
	a.mu.Lock()
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	sort.Strings(ids)

	saved := 0
	var firstErr error
	for _, id := range ids {
		if !a.tryAcquire(id) {
			continue
		}
		ok, err := a.save(ctx, id)
		a.release(id)
		if err != nil {
			a.logger.Error("autosave of document failed", "document_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			saved++
		}
	}
	return saved, firstErr
}

func (a *Autosaver) save(ctx context.Context, id string) (bool, error) {
	a.mu.Lock()
	s, ok := a.sessions[id]
	xml, pending := a.pending[id]
	a.mu.Unlock()
	if !ok {
		return false, nil
	}

	if s.Dirty() {
		var buf bytes.Buffer
		if err := s.SaveXML(ctx, &buf, a.pretty); err != nil {
			return false, err
		}
		xml, pending = buf.String(), true
	}
	if !pending {
		return false, nil
	}

	rev := &store.Revision{DocumentID: id, XML: xml, CreatedAt: time.Now().UTC()}
	if err := a.store.SaveRevision(ctx, rev); err != nil {
		a.mu.Lock()
		a.pending[id] = xml
		a.mu.Unlock()
		return false, err
	}

	a.mu.Lock()
	delete(a.pending, id)
	a.mu.Unlock()
	a.logger.Debug("document autosaved", "document_id", id, "revision", rev.Number)
	return true, nil
}

// Pending reports whether an export of id still waits to be stored.
func (a *Autosaver) Pending(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[id]
	return ok
}

func (a *Autosaver) tryAcquire(id string) bool {
	a.inflightMu.Lock()
	defer a.inflightMu.Unlock()
	if _, ok := a.inflight[id]; ok {
		return false
	}
	a.inflight[id] = struct{}{}
	return true
}

func (a *Autosaver) release(id string) {
	a.inflightMu.Lock()
	defer a.inflightMu.Unlock()
	delete(a.inflight, id)
}

// NextRun returns when spec fires next after from.
func (a *Autosaver) NextRun(spec string, from time.Time) (time.Time, error) {
	schedule, err := a.parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}
