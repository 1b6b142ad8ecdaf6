package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
)

// SyncHandler starts a sync run on GET and answers with a static page.
//
// At most one run is active. A request arriving during a run is acknowledged without starting another.
type SyncHandler struct {
	ctx      context.Context
	engine   tasks.SyncEngine
	creds    services.Credentials
	settings shared.SyncSettings
	states   *StateStore
	logger   *log.Logger

	running atomic.Bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	last    *tasks.Summary
}

// SyncHandlerOpts configures a [SyncHandler].
type SyncHandlerOpts struct {
	Context     context.Context // lifetime of background runs
	Engine      tasks.SyncEngine
	Credentials services.Credentials
	Settings    shared.SyncSettings
	States      *StateStore
	Logger      *log.Logger
}

// NewSyncHandler creates a [SyncHandler].
func NewSyncHandler(opts SyncHandlerOpts) *SyncHandler {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &SyncHandler{
		ctx:      ctx,
		engine:   opts.Engine,
		creds:    opts.Credentials,
		settings: opts.Settings,
		states:   opts.States,
		logger:   opts.Logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{"/{$}", "/sync"}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.creds.HasValidToken(r.Context()) {
		url := h.creds.AuthorizationURL(h.states.Issue())
		h.logger.Warn("Sync requested without authorization", "url", url)
		renderPage(w, http.StatusUnauthorized, authRequiredPage(url))
		return
	}

	if h.Start() {
		h.logger.Info("Sync started from HTTP request")
	} else {
		h.logger.Info("Sync already running, request acknowledged")
	}
	renderPage(w, http.StatusAccepted, syncStartedPage)
}

// Start launches a run in the background and reports whether one was started.
func (h *SyncHandler) Start() bool {
	if !h.running.CompareAndSwap(false, true) {
		return false
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.running.Store(false)

		summary := h.engine.Run(h.ctx, h.settings, nil)

		h.mu.Lock()
		h.last = summary
		h.mu.Unlock()
	}()
	return true
}

// Running reports whether a run is in progress.
func (h *SyncHandler) Running() bool {
	return h.running.Load()
}

// Wait blocks until the active run, if any, has finished.
func (h *SyncHandler) Wait() {
	h.wg.Wait()
}

// Last returns the summary of the most recent finished run, or nil.
func (h *SyncHandler) Last() *tasks.Summary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// StatusHandler reports whether a run is active and the last summary as JSON.
type StatusHandler struct {
	sync *SyncHandler
}

// NewStatusHandler creates a [StatusHandler] for h.
func NewStatusHandler(h *SyncHandler) *StatusHandler {
	return &StatusHandler{sync: h}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/status"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Running bool           `json:"running"`
		Last    *tasks.Summary `json:"last,omitempty"`
	}{h.sync.Running(), h.sync.Last()}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
