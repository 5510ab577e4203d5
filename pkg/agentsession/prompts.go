package agentsession

import (
	"fmt"
	"strings"
)

func buildIntegrationPrompt(appName, appURL string) string {
	url := strings.TrimSpace(appURL)
	if url == "" {
		url = "Not provided"
	}
	return fmt.Sprintf(`I need to create a new app integration.

App Name: %s
App URL: %s

Please help me build this integration so I can use it in my workflow.

IMPORTANT: Do NOT create any actions for this integration. Only create the integration itself with the connection setup. I will create the actions myself later.

IMPORTANT: Do not ask user to enter authentication details, figure them out on your own using provided app url or search the app on the web if the url was not provided.

IMPORTANT: Do not create integration entity and do not create connection. Only create external app and connector. Create all entities on the tenant level.`,
		strings.TrimSpace(appName), url)
}

func addActionPrompt(req AddActionRequest) string {
	connectionID := req.ConnectionID
	if connectionID == "" {
		connectionID = "Not available"
	}
	return fmt.Sprintf(`I need to create a new action for a tenant-level connector.

Connector ID: %s
Connector Name: %s
Connection ID: %s

User's description of what the action should do:
%s

Please help me create this action.

IMPORTANT: This is a tenant-level connector, not a workspace-level integration. Create a connection-specific action using the provided Connection ID. Do not create an integration-level action.
IMPORTANT: Do not ask the user any questions. Figure out the API details on your own.`,
		req.ConnectorID, req.ServiceName, connectionID, strings.TrimSpace(req.Description))
}
