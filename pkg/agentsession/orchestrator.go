package agentsession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/apiclient"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/appstate"
	"membrane-connect-be/pkg/membrane"

	"golang.org/x/sync/errgroup"
)

const DefaultRetryDelay = 3 * time.Second

// Backend is the slice of the membrane-connect API the orchestrator needs.
// *apiclient.Client implements it.
type Backend interface {
	CreateSession(ctx context.Context, prompt, agentName string) (string, error)
	SessionStatus(ctx context.Context, sessionID string, longPoll bool) (*membrane.SessionStatus, error)
	SearchConnectibles(ctx context.Context, query string) ([]dto.Connectible, error)
	CreateService(ctx context.Context, req dto.CreateMembraneServiceRequest) (*dto.MembraneServiceResponse, error)
	ListServices(ctx context.Context) ([]*dto.MembraneServiceResponse, error)
}

type pollHandle struct {
	cancel context.CancelFunc
}

type Orchestrator struct {
	backend  Backend
	sessions *SessionStore
	state    *appstate.Store
	notifier Notifier
	log      logger.ILogger

	retryDelay time.Duration

	mu     sync.Mutex
	active map[string]*pollHandle
	wg     sync.WaitGroup
}

func NewOrchestrator(backend Backend, sessions *SessionStore, state *appstate.Store, notifier Notifier, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		backend:    backend,
		sessions:   sessions,
		state:      state,
		notifier:   notifier,
		log:        log,
		retryDelay: DefaultRetryDelay,
		active:     make(map[string]*pollHandle),
	}
}

// WithRetryDelay overrides the pause between failed polls.
func (o *Orchestrator) WithRetryDelay(d time.Duration) *Orchestrator {
	o.retryDelay = d
	return o
}

// StartBuildSession asks the build agent to create an external app and
// connector for appName, persists the session and starts polling it.
func (o *Orchestrator) StartBuildSession(ctx context.Context, appName, appURL string) (StoredSession, error) {
	if strings.TrimSpace(appName) == "" {
		return StoredSession{}, apperror.Validation("appName is required")
	}

	session := StoredSession{Type: TypeBuildIntegration, AppName: appName}
	return o.start(ctx, session, buildIntegrationPrompt(appName, appURL), BuildAgentName, "pending-build", msgStartBuildFailed)
}

// StartAddActionSession asks the default agent to add a connection-scoped
// action to an existing service.
func (o *Orchestrator) StartAddActionSession(ctx context.Context, req AddActionRequest) (StoredSession, error) {
	if strings.TrimSpace(req.Description) == "" {
		return StoredSession{}, apperror.Validation("description is required")
	}

	session := StoredSession{
		Type:          TypeAddAction,
		ServiceName:   req.ServiceName,
		ExternalAppID: req.ExternalAppID,
		ConnectorID:   req.ConnectorID,
		ConnectionID:  req.ConnectionID,
	}
	return o.start(ctx, session, addActionPrompt(req), "", "pending-action", msgStartActionFailed)
}

func (o *Orchestrator) start(ctx context.Context, session StoredSession, prompt, agentName, pendingID, fallback string) (StoredSession, error) {
	tid := ToastID(pendingID)
	o.notifier.Loading(tid, LoadingMessage(session))

	sessionID, err := o.backend.CreateSession(ctx, prompt, agentName)
	if err != nil {
		message, status := fallback, 0
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
			if apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		o.notifier.Error(tid, message)
		o.log.Error("AGENT_SESSION", "Failed to start agent session", map[string]interface{}{
			"type":  string(session.Type),
			"error": err.Error(),
		})
		return StoredSession{}, apperror.Upstream(status, message, err)
	}

	session.SessionID = sessionID
	if err := o.sessions.Add(ctx, session); err != nil {
		o.log.Warn("AGENT_SESSION", "Failed to persist session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	o.notifier.Dismiss(tid)
	o.Poll(ctx, session)
	return session, nil
}

// Poll starts the long-poll loop for a session in the background. It
// returns false when a loop for that id is already running.
func (o *Orchestrator) Poll(ctx context.Context, session StoredSession) bool {
	o.mu.Lock()
	if _, running := o.active[session.SessionID]; running {
		o.mu.Unlock()
		return false
	}
	pollCtx, cancel := context.WithCancel(ctx)
	handle := &pollHandle{cancel: cancel}
	o.active[session.SessionID] = handle
	o.wg.Add(1)
	o.mu.Unlock()

	go o.run(pollCtx, session, handle)
	return true
}

// Cancel stops polling a session. The persisted record is kept so a later
// Resume picks it up again.
func (o *Orchestrator) Cancel(sessionID string) bool {
	o.mu.Lock()
	handle, ok := o.active[sessionID]
	if ok {
		delete(o.active, sessionID)
	}
	o.mu.Unlock()

	if ok {
		handle.cancel()
	}
	return ok
}

func (o *Orchestrator) CancelAll() {
	o.mu.Lock()
	handles := make([]*pollHandle, 0, len(o.active))
	for id, handle := range o.active {
		handles = append(handles, handle)
		delete(o.active, id)
	}
	o.mu.Unlock()

	for _, handle := range handles {
		handle.cancel()
	}
}

// Wait blocks until every poll loop has exited.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) IsBuilding() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active) > 0
}

func (o *Orchestrator) ActiveSessionIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]string, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) release(sessionID string, handle *pollHandle) {
	o.mu.Lock()
	if o.active[sessionID] == handle {
		delete(o.active, sessionID)
	}
	o.mu.Unlock()
	handle.cancel()
}

func (o *Orchestrator) run(ctx context.Context, session StoredSession, handle *pollHandle) {
	defer o.wg.Done()
	defer o.release(session.SessionID, handle)

	tid := session.ToastID()
	o.notifier.Loading(tid, LoadingMessage(session))

	for {
		status, err := o.fetchStatus(ctx, session.SessionID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			o.log.Warn("AGENT_SESSION", "Poll failed, retrying", map[string]interface{}{
				"session_id": session.SessionID,
				"error":      err.Error(),
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.retryDelay):
			}
			continue
		}

		// Once a terminal status is in hand the outcome is applied in full.
		done := context.WithoutCancel(ctx)
		switch {
		case status.Failed():
			o.forget(done, session.SessionID)
			o.notifier.Error(tid, FailureMessage(session, status.Status))
			return
		case status.Finished():
			o.forget(done, session.SessionID)
			o.complete(done, session)
			o.notifier.Success(tid, SuccessMessage(session))
			return
		}
	}
}

type statusResult struct {
	status *membrane.SessionStatus
	err    error
}

// fetchStatus issues one long poll. The request itself is not aborted on
// cancellation; the loop stops waiting for it and its answer is dropped.
func (o *Orchestrator) fetchStatus(ctx context.Context, sessionID string) (*membrane.SessionStatus, error) {
	results := make(chan statusResult, 1)
	go func() {
		status, err := o.backend.SessionStatus(context.WithoutCancel(ctx), sessionID, true)
		if err == nil && status == nil {
			err = errors.New("empty session status")
		}
		results <- statusResult{status: status, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-results:
		return r.status, r.err
	}
}

func (o *Orchestrator) forget(ctx context.Context, sessionID string) {
	if err := o.sessions.Remove(ctx, sessionID); err != nil {
		o.log.Warn("AGENT_SESSION", "Failed to remove persisted session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// complete runs the side effect of a finished session: a build registers
// the new service and refreshes the services list, an added action makes
// action lists refetch.
func (o *Orchestrator) complete(ctx context.Context, session StoredSession) {
	if session.Type == TypeAddAction {
		if _, err := o.state.BumpActionsRefetch(); err != nil {
			o.log.Warn("AGENT_SESSION", "Failed to signal actions refetch", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	o.addBuiltService(ctx, session.AppName)

	services, err := o.backend.ListServices(ctx)
	if err != nil {
		o.log.Warn("AGENT_SESSION", "Failed to refresh services", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := o.state.SetServices(services); err != nil {
		o.log.Warn("AGENT_SESSION", "Failed to publish services", map[string]interface{}{"error": err.Error()})
	}
}

// addBuiltService finds the connectible the agent just created and stores
// it as a service. An exact case-insensitive name match wins, otherwise
// the first result is taken.
func (o *Orchestrator) addBuiltService(ctx context.Context, appName string) bool {
	connectibles, err := o.backend.SearchConnectibles(ctx, appName)
	if err != nil {
		o.log.Warn("AGENT_SESSION", "Search for built service failed", map[string]interface{}{
			"app_name": appName,
			"error":    err.Error(),
		})
		return false
	}
	if len(connectibles) == 0 {
		o.log.Warn("AGENT_SESSION", "Built service not found", map[string]interface{}{"app_name": appName})
		return false
	}

	match := connectibles[0]
	for _, c := range connectibles {
		if strings.EqualFold(c.Name, appName) {
			match = c
			break
		}
	}

	_, err = o.backend.CreateService(ctx, dto.CreateMembraneServiceRequest{
		Name:           match.Name,
		LogoUri:        match.LogoURI,
		ConnectorId:    match.ConnectorID(),
		IntegrationKey: match.IntegrationKey(),
		ExternalAppId:  match.ExternalAppID(),
	})
	if err != nil {
		o.log.Warn("AGENT_SESSION", "Failed to add built service", map[string]interface{}{
			"app_name": appName,
			"error":    err.Error(),
		})
		return false
	}
	return true
}

// Resume checks every persisted session once, without long polling, and
// returns after all checks are done. Finished sessions get their side
// effect without a notification, failed ones get an error notification,
// unreachable ones are dropped and running ones are polled in the
// background.
func (o *Orchestrator) Resume(ctx context.Context) error {
	stored, err := o.sessions.List(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, session := range stored {
		g.Go(func() error {
			o.checkAndResume(gctx, ctx, session)
			return nil
		})
	}
	return g.Wait()
}

func (o *Orchestrator) checkAndResume(ctx, pollCtx context.Context, session StoredSession) {
	status, err := o.backend.SessionStatus(ctx, session.SessionID, false)
	if err != nil || status == nil {
		o.forget(ctx, session.SessionID)
		return
	}

	switch {
	case status.Failed():
		o.forget(ctx, session.SessionID)
		o.notifier.Error(session.ToastID(), FailureMessage(session, status.Status))
	case status.Finished():
		o.forget(ctx, session.SessionID)
		o.complete(ctx, session)
	default:
		o.Poll(pollCtx, session)
	}
}
