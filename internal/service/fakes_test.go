package service

import (
	"context"
	"encoding/json"
	"sync"

	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/repository/contract"
	"membrane-connect-be/internal/repository/specification"
	"membrane-connect-be/internal/repository/unitofwork"
	"membrane-connect-be/pkg/events"
	"membrane-connect-be/pkg/membrane"

	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Search(ctx context.Context, token, elementType, query string) ([]json.RawMessage, error) {
	args := m.Called(ctx, token, elementType, query)
	items, _ := args.Get(0).([]json.RawMessage)
	return items, args.Error(1)
}

func (m *mockAPI) List(ctx context.Context, token, endpoint string, limit int) ([]json.RawMessage, error) {
	args := m.Called(ctx, token, endpoint, limit)
	items, _ := args.Get(0).([]json.RawMessage)
	return items, args.Error(1)
}

func (m *mockAPI) ListActions(ctx context.Context, token string, filter membrane.ActionFilter, limit int) ([]membrane.Action, error) {
	args := m.Called(ctx, token, filter, limit)
	actions, _ := args.Get(0).([]membrane.Action)
	return actions, args.Error(1)
}

func (m *mockAPI) RunAction(ctx context.Context, token, actionKey, connectionID string, input map[string]interface{}) (json.RawMessage, error) {
	args := m.Called(ctx, token, actionKey, connectionID, input)
	out, _ := args.Get(0).(json.RawMessage)
	return out, args.Error(1)
}

func (m *mockAPI) CreateAgentSession(ctx context.Context, token, prompt, agentName string) (string, error) {
	args := m.Called(ctx, token, prompt, agentName)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) GetAgentSession(ctx context.Context, token, sessionID, wait, timeout string) (*membrane.SessionStatus, error) {
	args := m.Called(ctx, token, sessionID, wait, timeout)
	status, _ := args.Get(0).(*membrane.SessionStatus)
	return status, args.Error(1)
}

type stubMinter struct {
	err   error
	calls []string
}

func (s *stubMinter) Mint(userID, userName string) (string, error) {
	s.calls = append(s.calls, userID+"|"+userName)
	if s.err != nil {
		return "", s.err
	}
	return "tok-" + userID, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// memoryStore backs the fake unit of work. It understands the
// specifications the services use.
type memoryStore struct {
	mu       sync.Mutex
	services map[string]*entity.MembraneService
	users    map[string]*entity.User
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		services: map[string]*entity.MembraneService{},
		users:    map[string]*entity.User{},
	}
}

func (s *memoryStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: s}
}

type fakeUoW struct {
	store *memoryStore
}

func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUoW) MembraneServiceRepository() contract.MembraneServiceRepository {
	return &fakeServiceRepo{store: u.store}
}

func matches(svc *entity.MembraneService, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if svc.Id != sp.ID {
				return false
			}
		case specification.UserOwnedBy:
			if svc.UserId != sp.UserID {
				return false
			}
		}
	}
	return true
}

type fakeServiceRepo struct {
	store *memoryStore
}

func (r *fakeServiceRepo) Create(ctx context.Context, service *entity.MembraneService) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return r.store.err
	}
	copied := *service
	r.store.services[service.Id] = &copied
	return nil
}

func (r *fakeServiceRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MembraneService, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeServiceRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MembraneService, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return nil, r.store.err
	}
	var out []*entity.MembraneService
	for _, svc := range r.store.services {
		if matches(svc, specs) {
			copied := *svc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) UpdateConnection(ctx context.Context, id, userId string, connectionId *string) (*entity.MembraneService, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.err != nil {
		return nil, r.store.err
	}
	svc, ok := r.store.services[id]
	if !ok || svc.UserId != userId {
		return nil, nil
	}
	svc.ConnectionId = connectionId
	copied := *svc
	return &copied, nil
}

type fakeUserRepo struct {
	store *memoryStore
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if user, ok := r.store.users[byID.ID]; ok {
				copied := *user
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func strPtr(s string) *string {
	return &s
}
