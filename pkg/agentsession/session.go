// Package agentsession starts remote agent sessions that build
// integrations or add actions, persists them locally and long-polls each
// one until it finishes, surviving restarts in between.
package agentsession

type SessionType string

const (
	TypeBuildIntegration SessionType = "build-integration"
	TypeAddAction        SessionType = "add-action"
)

// BuildAgentName is the remote agent that creates external apps and
// connectors. Add-action sessions use the platform default agent.
const BuildAgentName = "connection-building"

// StoredSession is the locally persisted handle of a running agent
// session. Build sessions carry AppName; add-action sessions carry the
// service fields.
type StoredSession struct {
	Type      SessionType `json:"type"`
	SessionID string      `json:"sessionId"`

	AppName string `json:"appName,omitempty"`

	ServiceName   string `json:"serviceName,omitempty"`
	ExternalAppID string `json:"externalAppId,omitempty"`
	ConnectorID   string `json:"connectorId,omitempty"`
	ConnectionID  string `json:"connectionId,omitempty"`
}

// ToastID keys every notification about this session so later messages
// replace earlier ones.
func (s StoredSession) ToastID() string {
	return ToastID(s.SessionID)
}

func ToastID(sessionID string) string {
	return "agent-session-" + sessionID
}

// AddActionRequest describes the action a user wants added to a connected
// service.
type AddActionRequest struct {
	ServiceName   string
	ExternalAppID string
	ConnectorID   string
	ConnectionID  string
	Description   string
}
