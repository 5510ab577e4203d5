// Package actionpicker builds the searchable, grouped action catalog shown
// when a workflow step is configured: built-in system actions, registered
// plugin actions and the live actions of the user's connected services.
package actionpicker

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const CategorySystem = "System"

type Action struct {
	ID          string
	Label       string
	Description string
	Category    string
	// Integration names the plugin integration that provides the action.
	Integration string
}

var SystemActions = []Action{
	{ID: "HTTP Request", Label: "HTTP Request", Description: "Make an HTTP request to any API", Category: CategorySystem},
	{ID: "Database Query", Label: "Database Query", Description: "Query your database", Category: CategorySystem},
	{ID: "Condition", Label: "Condition", Description: "Branch based on a condition", Category: CategorySystem},
}

type Group struct {
	Category string
	Actions  []Action
	Hidden   bool
}

func matches(filter string, fields ...string) bool {
	if filter == "" {
		return true
	}
	term := strings.ToLower(filter)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterActions keeps actions whose label, description or category
// contains filter, ignoring case.
func FilterActions(actions []Action, filter string) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if matches(filter, a.Label, a.Description, a.Category) {
			out = append(out, a)
		}
	}
	return out
}

// GroupActions groups by category, keeping action order inside a group.
// System comes first, the rest sort by collated category name.
func GroupActions(actions []Action) []Group {
	index := map[string]int{}
	var groups []Group
	for _, a := range actions {
		i, ok := index[a.Category]
		if !ok {
			i = len(groups)
			index[a.Category] = i
			groups = append(groups, Group{Category: a.Category})
		}
		groups[i].Actions = append(groups[i].Actions, a)
	}

	col := collate.New(language.Und)
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Category, groups[j].Category
		if a == CategorySystem || b == CategorySystem {
			return a == CategorySystem && b != CategorySystem
		}
		return col.CompareString(a, b) < 0
	})
	return groups
}
