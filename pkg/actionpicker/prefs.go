package actionpicker

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"membrane-connect-be/pkg/localstore"
)

const (
	HiddenGroupsKey = "workflow-action-grid-hidden-groups"
	ViewModeKey     = "workflow-action-grid-view-mode"
)

type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// Preferences are the picker settings persisted between runs.
type Preferences struct {
	storage localstore.Storage
}

func NewPreferences(storage localstore.Storage) *Preferences {
	return &Preferences{storage: storage}
}

// HiddenGroups returns the hidden categories. Missing or unreadable
// values mean nothing is hidden.
func (p *Preferences) HiddenGroups(ctx context.Context) (map[string]bool, error) {
	hidden := map[string]bool{}
	raw, err := p.storage.Get(ctx, HiddenGroupsKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return hidden, nil
	}
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return hidden, nil
	}
	for _, c := range categories {
		hidden[c] = true
	}
	return hidden, nil
}

// ToggleHiddenGroup flips a category's hidden flag and reports the new
// state.
func (p *Preferences) ToggleHiddenGroup(ctx context.Context, category string) (bool, error) {
	hidden, err := p.HiddenGroups(ctx)
	if err != nil {
		return false, err
	}
	if hidden[category] {
		delete(hidden, category)
	} else {
		hidden[category] = true
	}

	categories := make([]string, 0, len(hidden))
	for c := range hidden {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	data, err := json.Marshal(categories)
	if err != nil {
		return false, err
	}
	if err := p.storage.Set(ctx, HiddenGroupsKey, string(data)); err != nil {
		return false, err
	}
	return hidden[category], nil
}

// ViewMode defaults to list; only the exact value "grid" selects grid.
func (p *Preferences) ViewMode(ctx context.Context) ViewMode {
	raw, err := p.storage.Get(ctx, ViewModeKey)
	if err == nil && raw == string(ViewGrid) {
		return ViewGrid
	}
	return ViewList
}

func (p *Preferences) ToggleViewMode(ctx context.Context) (ViewMode, error) {
	next := ViewGrid
	if p.ViewMode(ctx) == ViewGrid {
		next = ViewList
	}
	if err := p.storage.Set(ctx, ViewModeKey, string(next)); err != nil {
		return p.ViewMode(ctx), err
	}
	return next, nil
}
