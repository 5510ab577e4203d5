package connectible

import (
	"sort"

	"membrane-connect-be/pkg/membrane"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type merger struct {
	result []Connectible
	seen   map[string]bool
}

func (m *merger) add(key string, c Connectible) bool {
	if m.seen[key] {
		return false
	}
	m.seen[key] = true
	m.result = append(m.result, c)
	return true
}

func (m *merger) referencesApp(appID string) bool {
	for _, c := range m.result {
		if c.ExternalApp != nil && c.ExternalApp.ID == appID {
			return true
		}
	}
	return false
}

func (m *merger) referencesConnector(connectorID string) bool {
	for _, c := range m.result {
		if (c.Connector != nil && c.Connector.ID == connectorID) || c.ConnectParameters.ConnectorID == connectorID {
			return true
		}
	}
	return false
}

// Merge builds the deduplicated, ranked connectible list. Integrations come
// first (they are ready to use), then apps that have a default connector and
// no integration yet, then connectors nobody references. The result is
// ordered integrations-first, then by name.
func Merge(integrations []membrane.Integration, apps []membrane.App, connectors []membrane.Connector) []Connectible {
	appByID := make(map[string]membrane.App, len(apps))
	for _, app := range apps {
		appByID[app.Identifier()] = app
	}
	connectorByID := make(map[string]membrane.Connector, len(connectors))
	for _, connector := range connectors {
		connectorByID[connector.ID] = connector
	}

	m := &merger{seen: make(map[string]bool)}

	for _, el := range integrations {
		c := Connectible{
			Name:              firstNonEmpty(el.Name, el.Key, el.ID),
			LogoURI:           el.LogoURI,
			ConnectParameters: ConnectParameters{IntegrationID: el.ID},
			Integration: &IntegrationRef{
				ID:          el.ID,
				Key:         el.Key,
				State:       el.State,
				ConnectorID: el.ConnectorID,
			},
		}
		if el.AppUUID != "" {
			app := appByID[el.AppUUID]
			c.ExternalApp = &ExternalAppRef{ID: el.AppUUID, Key: app.Key, Name: app.Name}
		}
		if el.ConnectorID != "" {
			connector := connectorByID[el.ConnectorID]
			c.Connector = &ConnectorRef{ID: el.ConnectorID, Name: connector.Name}
		}
		m.add("integration:"+el.ID, c)
	}

	for _, el := range apps {
		appID := el.Identifier()
		if el.DefaultConnectorID == "" || m.referencesApp(appID) {
			continue
		}
		c := Connectible{
			Name:              firstNonEmpty(el.Name, el.Key, appID),
			LogoURI:           el.LogoURI,
			ConnectParameters: ConnectParameters{ConnectorID: el.DefaultConnectorID},
			ExternalApp:       &ExternalAppRef{ID: appID, Key: el.Key, Name: el.Name},
		}
		if connector, ok := connectorByID[el.DefaultConnectorID]; ok {
			c.Connector = &ConnectorRef{ID: el.DefaultConnectorID, Name: connector.Name}
		}
		m.add("app:"+appID, c)
	}

	for _, el := range connectors {
		if m.referencesConnector(el.ID) {
			continue
		}
		m.add("connector:"+el.ID, Connectible{
			Name:              firstNonEmpty(el.Name, el.Key, el.ID),
			LogoURI:           el.LogoURI,
			ConnectParameters: ConnectParameters{ConnectorID: el.ID},
			Connector:         &ConnectorRef{ID: el.ID, Name: el.Name},
		})
	}

	Sort(m.result)
	return m.result
}

// Sort orders integration-backed items first and then by locale-aware name.
func Sort(items []Connectible) {
	col := collate.New(language.Und)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Integration != nil) != (b.Integration != nil) {
			return a.Integration != nil
		}
		return col.CompareString(a.Name, b.Name) < 0
	})
}
