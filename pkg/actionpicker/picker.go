package actionpicker

import (
	"context"
	"sync"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/actionstep"
	"membrane-connect-be/pkg/appstate"

	"golang.org/x/sync/errgroup"
)

const refreshConcurrency = 4

// ActionLister fetches a service's live actions. *apiclient.Client
// implements it.
type ActionLister interface {
	ListActions(ctx context.Context, externalAppID, connectionID string) ([]dto.MembraneAction, error)
}

// View is one rendering of the picker for a given filter.
type View struct {
	Mode     ViewMode
	Groups   []Group
	Services []*dto.MembraneServiceResponse
	// HiddenCount is the number of hidden categories, shown or not.
	HiddenCount int
	// Empty is set when neither actions nor services match the filter.
	Empty bool
	// AllHidden is set when actions match but every matching group is
	// hidden and no service matches.
	AllHidden bool
}

type Picker struct {
	plugins []Action
	prefs   *Preferences
	lister  ActionLister
	state   *appstate.Store
	log     logger.ILogger

	mu      sync.RWMutex
	actions map[string][]dto.MembraneAction
}

func New(plugins []Action, prefs *Preferences, lister ActionLister, state *appstate.Store, log logger.ILogger) *Picker {
	return &Picker{
		plugins: plugins,
		prefs:   prefs,
		lister:  lister,
		state:   state,
		log:     log,
		actions: make(map[string][]dto.MembraneAction),
	}
}

// Catalog is every static action: system actions then plugin actions.
func (p *Picker) Catalog() []Action {
	out := make([]Action, 0, len(SystemActions)+len(p.plugins))
	out = append(out, SystemActions...)
	return append(out, p.plugins...)
}

// Services returns the connected services whose name contains filter.
func (p *Picker) Services(filter string) []*dto.MembraneServiceResponse {
	services := p.state.Services()
	out := make([]*dto.MembraneServiceResponse, 0, len(services))
	for _, s := range services {
		if matches(filter, s.Name) {
			out = append(out, s)
		}
	}
	return out
}

func (p *Picker) View(ctx context.Context, filter string, showHidden bool) (*View, error) {
	hidden, err := p.prefs.HiddenGroups(ctx)
	if err != nil {
		return nil, err
	}

	filtered := FilterActions(p.Catalog(), filter)
	view := &View{
		Mode:        p.prefs.ViewMode(ctx),
		Services:    p.Services(filter),
		HiddenCount: len(hidden),
	}

	for _, g := range GroupActions(filtered) {
		g.Hidden = hidden[g.Category]
		if g.Hidden && !showHidden {
			continue
		}
		view.Groups = append(view.Groups, g)
	}

	view.Empty = len(filtered) == 0 && len(view.Services) == 0
	view.AllHidden = len(filtered) > 0 && len(view.Groups) == 0 && len(view.Services) == 0
	return view, nil
}

// ServiceActions returns a service's live actions, fetching them on first
// use. The connection id takes precedence over the external app id; a
// service with neither has no actions.
func (p *Picker) ServiceActions(ctx context.Context, service *dto.MembraneServiceResponse) ([]dto.MembraneAction, error) {
	p.mu.RLock()
	cached, ok := p.actions[service.Id]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return p.fetch(ctx, service)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (p *Picker) fetch(ctx context.Context, service *dto.MembraneServiceResponse) ([]dto.MembraneAction, error) {
	connectionID := deref(service.ConnectionId)
	externalAppID := deref(service.ExternalAppId)
	if connectionID != "" {
		externalAppID = ""
	}

	actions := []dto.MembraneAction{}
	if connectionID != "" || externalAppID != "" {
		fetched, err := p.lister.ListActions(ctx, externalAppID, connectionID)
		if err != nil {
			p.log.Warn("ACTION_PICKER", "Failed to fetch actions", map[string]interface{}{
				"service_id": service.Id,
				"error":      err.Error(),
			})
			return actions, err
		}
		if fetched != nil {
			actions = fetched
		}
	}

	p.mu.Lock()
	p.actions[service.Id] = actions
	p.mu.Unlock()
	return actions, nil
}

// Refresh refetches the actions of every known service.
func (p *Picker) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.actions = make(map[string][]dto.MembraneAction)
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, service := range p.state.Services() {
		g.Go(func() error {
			_, err := p.fetch(gctx, service)
			return err
		})
	}
	return g.Wait()
}

// Watch refetches service actions every time the actions-refetch counter
// changes, until ctx is done. onRefresh, if set, runs after each
// successful refetch.
func (p *Picker) Watch(ctx context.Context, onRefresh func(count int)) error {
	return p.state.OnActionsRefetch(ctx, func(count int) {
		if err := p.Refresh(ctx); err != nil {
			p.log.Warn("ACTION_PICKER", "Refetch after counter change failed", map[string]interface{}{
				"count": count,
				"error": err.Error(),
			})
			return
		}
		if onRefresh != nil {
			onRefresh(count)
		}
	})
}

// SelectServiceAction is the action type recorded when a service action is
// picked.
func SelectServiceAction(service *dto.MembraneServiceResponse, action dto.MembraneAction) string {
	return actionstep.FormatActionType(service.Id, action.Key, action.Name)
}

// SelectAction is the action type recorded when a static action is picked.
func SelectAction(action Action) string {
	return action.ID
}
