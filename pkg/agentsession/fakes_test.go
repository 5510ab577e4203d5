package agentsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/appstate"
	"membrane-connect-be/pkg/localstore"
	"membrane-connect-be/pkg/membrane"
)

type statusReply struct {
	status *membrane.SessionStatus
	err    error
}

func reply(status, state string) statusReply {
	return statusReply{status: &membrane.SessionStatus{Status: status, State: state}}
}

var errNetwork = errors.New("connection refused")

type fakeBackend struct {
	mu sync.Mutex

	createID   string
	createErr  error
	prompts    []string
	agentNames []string

	// replies are consumed in order per session; the last one repeats.
	replies   map[string][]statusReply
	longPolls map[string]int
	block     chan struct{}

	connectibles []dto.Connectible
	searchErr    error
	created      []dto.CreateMembraneServiceRequest
	services     []*dto.MembraneServiceResponse
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		replies:   map[string][]statusReply{},
		longPolls: map[string]int{},
	}
}

func (f *fakeBackend) CreateSession(_ context.Context, prompt, agentName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.agentNames = append(f.agentNames, agentName)
	return f.createID, f.createErr
}

func (f *fakeBackend) SessionStatus(_ context.Context, sessionID string, longPoll bool) (*membrane.SessionStatus, error) {
	f.mu.Lock()
	if longPoll {
		f.longPolls[sessionID]++
	}
	block := f.block
	queue := f.replies[sessionID]
	var r statusReply
	switch len(queue) {
	case 0:
		r = statusReply{err: fmt.Errorf("unknown session %s", sessionID)}
	case 1:
		r = queue[0]
	default:
		r = queue[0]
		f.replies[sessionID] = queue[1:]
	}
	f.mu.Unlock()

	if longPoll && block != nil {
		<-block
	}
	return r.status, r.err
}

func (f *fakeBackend) SearchConnectibles(_ context.Context, _ string) ([]dto.Connectible, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectibles, f.searchErr
}

func (f *fakeBackend) CreateService(_ context.Context, req dto.CreateMembraneServiceRequest) (*dto.MembraneServiceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	svc := &dto.MembraneServiceResponse{Id: fmt.Sprintf("svc-%d", len(f.created)), Name: req.Name}
	f.services = append(f.services, svc)
	return svc, nil
}

func (f *fakeBackend) ListServices(_ context.Context) ([]*dto.MembraneServiceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*dto.MembraneServiceResponse, len(f.services))
	copy(out, f.services)
	return out, nil
}

func (f *fakeBackend) longPollCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.longPolls[sessionID]
}

type notification struct {
	Kind    string
	ID      string
	Message string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) add(kind, id, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{Kind: kind, ID: id, Message: message})
}

func (n *recordingNotifier) Loading(id, message string) { n.add("loading", id, message) }
func (n *recordingNotifier) Success(id, message string) { n.add("success", id, message) }
func (n *recordingNotifier) Error(id, message string)   { n.add("error", id, message) }
func (n *recordingNotifier) Dismiss(id string)          { n.add("dismiss", id, "") }

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) ofKind(kind string) []notification {
	var out []notification
	for _, e := range n.all() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	backend  *fakeBackend
	storage  *localstore.MemoryStorage
	sessions *SessionStore
	state    *appstate.Store
	notifier *recordingNotifier
	orch     *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:  newFakeBackend(),
		storage:  localstore.NewMemoryStorage(),
		state:    appstate.NewStore(nil),
		notifier: &recordingNotifier{},
	}
	log := logger.NewNopLogger()
	h.sessions = NewSessionStore(h.storage, log)
	h.orch = NewOrchestrator(h.backend, h.sessions, h.state, h.notifier, log).WithRetryDelay(time.Millisecond)
	t.Cleanup(func() {
		h.orch.CancelAll()
		_ = h.state.Close()
	})
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		h.orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loops did not finish")
	}
}

func (h *harness) persistedIDs(t *testing.T) []string {
	t.Helper()
	sessions, err := h.sessions.List(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID)
	}
	return ids
}
