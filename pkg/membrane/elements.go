package membrane

import (
	"encoding/json"
)

// Element types accepted by the generic search endpoint.
const (
	ElementIntegration = "integration"
	ElementApp         = "app"
	ElementConnector   = "connector"
)

type Integration struct {
	ID          string
	Key         string
	Name        string
	LogoURI     string
	State       string
	ConnectorID string
	AppUUID     string
}

type App struct {
	UUID               string
	ID                 string
	Key                string
	Name               string
	LogoURI            string
	DefaultConnectorID string
}

// Identifier prefers the app's uuid over its id.
func (a App) Identifier() string {
	if a.UUID != "" {
		return a.UUID
	}
	return a.ID
}

type Connector struct {
	ID      string
	Key     string
	Name    string
	LogoURI string
}

type Action struct {
	ID          string
	Name        string
	Description string
	InputSchema json.RawMessage
}

type SessionError struct {
	Message string `json:"message"`
}

type SessionStatus struct {
	Status  string        `json:"status"`
	State   string        `json:"state"`
	Error   *SessionError `json:"error,omitempty"`
	Summary string        `json:"summary,omitempty"`
}

// Failed reports a terminal failure (failed or cancelled).
func (s SessionStatus) Failed() bool {
	return s.Status == "failed" || s.Status == "cancelled"
}

// Finished reports that the agent is done and its result can be
// collected. An idle agent counts as finished.
func (s SessionStatus) Finished() bool {
	return s.State == "idle" || s.Status == "completed"
}

// rawElement is an untyped platform record. Fields are read through str so
// that a value of an unexpected JSON type reads as absent instead of
// failing the whole record.
type rawElement map[string]json.RawMessage

func (r rawElement) str(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeElements(items []json.RawMessage) []rawElement {
	out := make([]rawElement, 0, len(items))
	for _, item := range items {
		var el rawElement
		if err := json.Unmarshal(item, &el); err != nil || el == nil {
			continue
		}
		out = append(out, el)
	}
	return out
}

// ParseIntegrations drops records without an id.
func ParseIntegrations(items []json.RawMessage) []Integration {
	var result []Integration
	for _, el := range decodeElements(items) {
		integration := Integration{
			ID:          el.str("id"),
			Key:         el.str("key"),
			Name:        el.str("name"),
			LogoURI:     el.str("logoUri"),
			State:       el.str("state"),
			ConnectorID: el.str("connectorId"),
			AppUUID:     el.str("appUuid"),
		}
		if integration.ID == "" {
			continue
		}
		result = append(result, integration)
	}
	return result
}

// ParseApps drops records with neither uuid nor id.
func ParseApps(items []json.RawMessage) []App {
	var result []App
	for _, el := range decodeElements(items) {
		app := App{
			UUID:               el.str("uuid"),
			ID:                 el.str("id"),
			Key:                el.str("key"),
			Name:               el.str("name"),
			LogoURI:            el.str("logoUri"),
			DefaultConnectorID: el.str("defaultConnectorId"),
		}
		if app.Identifier() == "" {
			continue
		}
		result = append(result, app)
	}
	return result
}

// ParseConnectors drops records without an id.
func ParseConnectors(items []json.RawMessage) []Connector {
	var result []Connector
	for _, el := range decodeElements(items) {
		connector := Connector{
			ID:      el.str("id"),
			Key:     el.str("key"),
			Name:    el.str("name"),
			LogoURI: el.str("logoUri"),
		}
		if connector.ID == "" {
			continue
		}
		result = append(result, connector)
	}
	return result
}

// ParseActions drops records without an id. The input schema is kept only
// when it is a JSON object.
func ParseActions(items []json.RawMessage) []Action {
	var result []Action
	for _, el := range decodeElements(items) {
		action := Action{
			ID:          el.str("id"),
			Name:        el.str("name"),
			Description: el.str("description"),
		}
		if action.ID == "" {
			continue
		}
		if schema, ok := el["inputSchema"]; ok {
			var fields map[string]json.RawMessage
			if json.Unmarshal(schema, &fields) == nil && fields != nil {
				action.InputSchema = schema
			}
		}
		result = append(result, action)
	}
	return result
}
