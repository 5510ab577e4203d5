// Package connectible unifies integrations, external apps and connectors
// into a single ranked list of things a user can connect to.
package connectible

type ConnectParameters struct {
	IntegrationID string `json:"integrationId,omitempty"`
	ConnectorID   string `json:"connectorId,omitempty"`
}

type IntegrationRef struct {
	ID          string `json:"id"`
	Key         string `json:"key,omitempty"`
	State       string `json:"state,omitempty"`
	ConnectorID string `json:"connectorId,omitempty"`
}

type ExternalAppRef struct {
	ID   string `json:"id"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

type ConnectorRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Connectible is a transient search result. At least one of Integration,
// ExternalApp or Connector is set.
type Connectible struct {
	Name              string            `json:"name"`
	LogoURI           string            `json:"logoUri,omitempty"`
	ConnectParameters ConnectParameters `json:"connectParameters"`
	Integration       *IntegrationRef   `json:"integration,omitempty"`
	ExternalApp       *ExternalAppRef   `json:"externalApp,omitempty"`
	Connector         *ConnectorRef     `json:"connector,omitempty"`
}

// ConnectorID is the connector to use when registering this connectible as
// a service.
func (c Connectible) ConnectorID() string {
	if c.ConnectParameters.ConnectorID != "" {
		return c.ConnectParameters.ConnectorID
	}
	if c.Connector != nil {
		return c.Connector.ID
	}
	return ""
}

func (c Connectible) IntegrationKey() string {
	if c.Integration != nil {
		return c.Integration.Key
	}
	return ""
}

func (c Connectible) ExternalAppID() string {
	if c.ExternalApp != nil {
		return c.ExternalApp.ID
	}
	return ""
}

// DedupKey identifies the source record a connectible was built from.
func (c Connectible) DedupKey() string {
	switch {
	case c.Integration != nil:
		return "integration:" + c.Integration.ID
	case c.ExternalApp != nil:
		return "app:" + c.ExternalApp.ID
	case c.Connector != nil:
		return "connector:" + c.Connector.ID
	}
	return ""
}
