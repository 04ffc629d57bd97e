// Package reconciler keeps the server-side session store consistent with
// whatever the widget has most recently written to the local session cache.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/luminacoach/sessionsync/internal/localcache"
)

// StoreClient is the slice of the session store API the reconciler needs.
type StoreClient interface {
	Check(ctx context.Context, projectID, externalSessionID string) (bool, error)
	Register(ctx context.Context, projectID string, data api.SessionData, sessionName string) error
	Update(ctx context.Context, projectID string, data api.SessionData) error
}

// Options holds the reconciler's timing budgets. The poll is a correctness
// mechanism: the widget mutates the cache through writes that raise no
// change notification, so events alone are not enough.
type Options struct {
	PollInterval       time.Duration
	WidgetWaitInterval time.Duration
	WidgetWaitAttempts int
	AuthCooldown       time.Duration
}

func (o *Options) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
	if o.WidgetWaitInterval <= 0 {
		o.WidgetWaitInterval = 500 * time.Millisecond
	}
	if o.WidgetWaitAttempts <= 0 {
		o.WidgetWaitAttempts = 10
	}
	if o.AuthCooldown <= 0 {
		o.AuthCooldown = 30 * time.Second
	}
}

// Reconciler scans the local session cache and issues the minimal corrective
// store calls. Every failure is contained: the next event or poll tick
// self-heals.
type Reconciler struct {
	cache  *localcache.Store
	store  StoreClient
	turns  *TurnCache
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	pendingNames map[string]string
	authFailedAt time.Time

	onRegistered func()
	wg           sync.WaitGroup
}

// New creates a reconciler over the given cache and store client.
func New(cache *localcache.Store, store StoreClient, opts Options, logger *slog.Logger) *Reconciler {
	opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		cache:        cache,
		store:        store,
		turns:        NewTurnCache(),
		opts:         opts,
		logger:       logger,
		pendingNames: make(map[string]string),
	}
}

// OnRegistered sets the callback invoked after a new session is registered,
// so the session list view can refresh. Must be set before Run.
func (r *Reconciler) OnRegistered(fn func()) {
	r.onRegistered = fn
}

// NameNextSession attaches a human-readable name to the next session
// registered under a project. Used by the explicit "new session" action; a
// session discovered by background sync carries no name.
func (r *Reconciler) NameNextSession(projectID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingNames[projectID] = name
}

// Run drives the reconciliation loop until the context is canceled: one
// initial full scan, a bounded widget-startup wait, then cache change events
// interleaved with the periodic poll.
func (r *Reconciler) Run(ctx context.Context) error {
	events, unsubscribe := r.cache.Subscribe()
	defer unsubscribe()

	r.Scan(ctx, true)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.waitForWidget(ctx)
	}()

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return ctx.Err()

		case event := <-events:
			if event.Deleted {
				continue
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.ReconcileEntry(ctx, event.Key, event.Value, false)
			}()

		case <-ticker.C:
			r.Scan(ctx, false)
		}
	}
}

// Scan reconciles every current cache entry. Entries are reconciled
// independently; one entry's network round trip does not block the next.
// A forced scan bypasses the turn-count fast path.
func (r *Reconciler) Scan(ctx context.Context, forced bool) {
	entries, err := r.cache.Entries()
	if err != nil {
		r.logger.Warn("scanning cache failed", "error", err)
		return
	}

	for _, entry := range entries {
		entry := entry
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.ReconcileEntry(ctx, entry.Key, entry.Value, forced)
		}()
	}
}

// Wait blocks until all in-flight reconciliations finish. Test hook.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// ReconcileEntry reconciles one cache entry against the session store.
func (r *Reconciler) ReconcileEntry(ctx context.Context, key, raw string, forced bool) {
	projectID, ok := r.cache.ProjectID(key)
	if !ok {
		return
	}

	state, err := session.ParseWidgetValue(json.RawMessage(raw))
	if err != nil {
		// The widget overwrites its entries on its own cadence; a torn
		// write is skipped, not retried.
		r.logger.Warn("skipping malformed cache entry", "key", key, "error", err)
		return
	}
	if state.ExternalSessionID == "" {
		// Pre-conversation entry: no userID yet, nothing to reconcile.
		return
	}

	externalID := state.ExternalSessionID
	lastTurns, known := r.turns.Get(externalID)
	if known && lastTurns == state.Turns && !forced {
		return
	}

	if r.inAuthCooldown() {
		r.logger.Debug("skipping reconcile during auth cooldown", "key", key)
		return
	}

	data := api.SessionData{
		VoiceflowUserID: externalID,
		LastTurn:        json.RawMessage(raw),
		Source:          string(session.ProvenanceLocalSync),
		DetectedAt:      time.Now(),
	}

	// A session already in the turn cache was synced by this process, so the
	// record is known to exist: go straight to update, no existence check.
	exists := known
	if !known {
		exists, err = r.store.Check(ctx, projectID, externalID)
		if err != nil {
			r.noteFailure("check", key, err)
			return
		}
	}

	if exists {
		if err := r.store.Update(ctx, projectID, data); err != nil {
			r.noteFailure("update", key, err)
			return
		}
		r.turns.Set(externalID, state.Turns)
		return
	}

	name := r.takePendingName(projectID)
	if err := r.store.Register(ctx, projectID, data, name); err != nil {
		if name != "" {
			r.NameNextSession(projectID, name)
		}
		r.noteFailure("register", key, err)
		return
	}
	r.turns.Set(externalID, state.Turns)
	r.logger.Info("registered session", "project_id", projectID, "external_session_id", externalID)
	if r.onRegistered != nil {
		r.onRegistered()
	}
}

// waitForWidget re-scans during widget startup: the widget initializes
// asynchronously and may populate the cache well after the process starts.
// Stops early once at least one entry appears.
func (r *Reconciler) waitForWidget(ctx context.Context) {
	for attempt := 0; attempt < r.opts.WidgetWaitAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.opts.WidgetWaitInterval):
		}

		entries, err := r.cache.Entries()
		if err != nil {
			r.logger.Warn("widget wait scan failed", "error", err)
			continue
		}
		if len(entries) > 0 {
			r.Scan(ctx, true)
			return
		}
	}
	r.logger.Debug("widget wait exhausted without cache entries")
}

func (r *Reconciler) takePendingName(projectID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := r.pendingNames[projectID]
	delete(r.pendingNames, projectID)
	return name
}

func (r *Reconciler) noteFailure(op, key string, err error) {
	if errors.Is(err, client.ErrUnauthenticated) {
		r.mu.Lock()
		r.authFailedAt = time.Now()
		r.mu.Unlock()
		r.logger.Warn("store rejected credentials, backing off", "op", op, "key", key)
		return
	}
	r.logger.Warn("store call failed", "op", op, "key", key, "error", err)
}

func (r *Reconciler) inAuthCooldown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.authFailedAt.IsZero() {
		return false
	}
	return time.Since(r.authFailedAt) < r.opts.AuthCooldown
}
