package dto

import (
	"encoding/json"

	"membrane-connect-be/pkg/connectible"
	"membrane-connect-be/pkg/membrane"
)

type Connectible = connectible.Connectible

type SearchConnectiblesResponse struct {
	Connectibles []Connectible `json:"connectibles"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// MembraneServiceResponse is the public projection of a stored service.
// Unset optional fields serialize as null.
type MembraneServiceResponse struct {
	Id             string  `json:"id"`
	Name           string  `json:"name"`
	LogoUri        *string `json:"logoUri"`
	ConnectorId    *string `json:"connectorId"`
	IntegrationKey *string `json:"integrationKey"`
	ExternalAppId  *string `json:"externalAppId"`
	ConnectionId   *string `json:"connectionId"`
}

type ListMembraneServicesResponse struct {
	Services []*MembraneServiceResponse `json:"services"`
}

type MembraneServiceEnvelope struct {
	Service *MembraneServiceResponse `json:"service"`
}

type CreateMembraneServiceRequest struct {
	Name           string `json:"name" validate:"required"`
	LogoUri        string `json:"logoUri"`
	ConnectorId    string `json:"connectorId"`
	IntegrationKey string `json:"integrationKey"`
	ExternalAppId  string `json:"externalAppId"`
}

// UpdateMembraneServiceRequest sets or clears a service's connection. A
// null or absent connectionId clears it.
type UpdateMembraneServiceRequest struct {
	Id           string  `json:"id" validate:"required"`
	ConnectionId *string `json:"connectionId"`
}

type ActionSchemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

type ActionInputSchema struct {
	Type       string                          `json:"type,omitempty"`
	Properties map[string]ActionSchemaProperty `json:"properties,omitempty"`
	Required   []string                        `json:"required,omitempty"`
}

type MembraneAction struct {
	Key         string             `json:"key"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *ActionInputSchema `json:"inputSchema,omitempty"`
}

type ListActionsResponse struct {
	Actions []MembraneAction `json:"actions"`
}

type RunActionRequest struct {
	ServiceId string                 `json:"serviceId" validate:"required"`
	ActionKey string                 `json:"actionKey" validate:"required"`
	Input     map[string]interface{} `json:"input"`
}

type RunActionResponse struct {
	Success bool            `json:"success"`
	Output  json.RawMessage `json:"output,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type CreateAgentSessionRequest struct {
	Prompt    string `json:"prompt" validate:"required"`
	AgentName string `json:"agentName,omitempty"`
}

type CreateAgentSessionResponse struct {
	SessionId string `json:"sessionId"`
}

type AgentSessionStatusResponse = membrane.SessionStatus
