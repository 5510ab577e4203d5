package events

import "time"

const (
	TypeServiceCreated      = "MEMBRANE_SERVICE_CREATED"
	TypeServiceConnected    = "MEMBRANE_SERVICE_CONNECTED"
	TypeAgentSessionCreated = "MEMBRANE_AGENT_SESSION_CREATED"
)

func NewServiceCreated(userID, serviceID, name string) BaseEvent {
	return BaseEvent{
		Type: TypeServiceCreated,
		Data: map[string]interface{}{
			"userId":    userID,
			"serviceId": serviceID,
			"name":      name,
		},
		OccurredAt: time.Now(),
	}
}

// NewServiceConnected is also emitted when a connection is cleared, with an
// empty connectionId.
func NewServiceConnected(userID, serviceID, connectionID string) BaseEvent {
	return BaseEvent{
		Type: TypeServiceConnected,
		Data: map[string]interface{}{
			"userId":       userID,
			"serviceId":    serviceID,
			"connectionId": connectionID,
		},
		OccurredAt: time.Now(),
	}
}

func NewAgentSessionCreated(userID, sessionID, agentName string) BaseEvent {
	return BaseEvent{
		Type: TypeAgentSessionCreated,
		Data: map[string]interface{}{
			"userId":    userID,
			"sessionId": sessionID,
			"agentName": agentName,
		},
		OccurredAt: time.Now(),
	}
}
