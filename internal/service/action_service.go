package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/internal/repository/specification"
	"membrane-connect-be/internal/repository/unitofwork"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/membrane"
)

const actionListLimit = 100

type IActionService interface {
	ListActions(ctx context.Context, user dto.AuthUser, externalAppId, connectionId string) (*dto.ListActionsResponse, error)
	RunAction(ctx context.Context, req *dto.RunActionRequest) (*dto.RunActionResponse, error)
}

type actionService struct {
	uowFactory unitofwork.RepositoryFactory
	api        MembraneAPI
	minter     TokenMinter
	logger     logger.ILogger
}

func NewActionService(
	uowFactory unitofwork.RepositoryFactory,
	api MembraneAPI,
	minter TokenMinter,
	logger logger.ILogger,
) IActionService {
	return &actionService{
		uowFactory: uowFactory,
		api:        api,
		minter:     minter,
		logger:     logger,
	}
}

func toActionDTO(action membrane.Action) dto.MembraneAction {
	out := dto.MembraneAction{
		Key:         action.ID,
		Name:        action.Name,
		Description: action.Description,
	}
	if out.Name == "" {
		out.Name = action.ID
	}
	out.InputSchema = parseInputSchema(action.InputSchema)
	return out
}

// schemaType reads a JSON Schema "type", which is either a string or a
// list of strings such as ["string","null"]. The first non-null entry of a
// list wins.
func schemaType(raw json.RawMessage) string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return ""
	}
	for _, entry := range list {
		if t, ok := entry.(string); ok && t != "null" {
			return t
		}
	}
	return ""
}

func schemaString(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

// parseInputSchema keeps what can be read from an action's input schema.
// A malformed property is dropped on its own; only a schema that is not an
// object yields nil.
func parseInputSchema(raw json.RawMessage) *dto.ActionInputSchema {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}

	schema := &dto.ActionInputSchema{Type: schemaType(fields["type"])}

	var required []interface{}
	if err := json.Unmarshal(fields["required"], &required); err == nil {
		for _, entry := range required {
			if name, ok := entry.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	var properties map[string]json.RawMessage
	if err := json.Unmarshal(fields["properties"], &properties); err == nil {
		for name, rawProp := range properties {
			var prop map[string]json.RawMessage
			if err := json.Unmarshal(rawProp, &prop); err != nil || prop == nil {
				continue
			}
			if schema.Properties == nil {
				schema.Properties = make(map[string]dto.ActionSchemaProperty, len(properties))
			}
			schema.Properties[name] = dto.ActionSchemaProperty{
				Type:        schemaType(prop["type"]),
				Description: schemaString(prop["description"]),
			}
		}
	}
	return schema
}

// upstreamMessage is the platform's own error message for a failed call:
// the "message" or "error" field of its response body. Transport failures
// and bodies without one give fallback.
func upstreamMessage(err error, fallback string) string {
	var httpErr *membrane.HTTPError
	if !errors.As(err, &httpErr) {
		return fallback
	}
	var body struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if json.Unmarshal([]byte(httpErr.Body), &body) != nil {
		return fallback
	}
	for _, candidate := range []interface{}{body.Message, body.Error} {
		if msg, ok := candidate.(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return fallback
}

// ListActions lists actions available for a connection or, failing that, an
// external app. One of the two identifiers is required.
func (s *actionService) ListActions(ctx context.Context, user dto.AuthUser, externalAppId, connectionId string) (*dto.ListActionsResponse, error) {
	externalAppId = strings.TrimSpace(externalAppId)
	connectionId = strings.TrimSpace(connectionId)
	if externalAppId == "" && connectionId == "" {
		return nil, apperror.Validation("externalAppId or connectionId is required")
	}

	token, err := mintFor(s.minter, user, "Failed to fetch actions")
	if err != nil {
		return nil, err
	}

	filter := membrane.ActionFilter{ExternalAppID: externalAppId, ConnectionID: connectionId}
	actions, err := s.api.ListActions(ctx, token, filter, actionListLimit)
	if err != nil {
		s.logger.Error("ActionService", "Failed to fetch actions", map[string]interface{}{
			"external_app_id": externalAppId,
			"connection_id":   connectionId,
			"error":           err.Error(),
		})
		return nil, apperror.Upstream(upstreamStatus(err), "Failed to fetch actions", err)
	}

	result := make([]dto.MembraneAction, 0, len(actions))
	for _, action := range actions {
		result = append(result, toActionDTO(action))
	}
	return &dto.ListActionsResponse{Actions: result}, nil
}

// RunAction executes actionKey on behalf of the service's owner, scoped to
// the service's connection. It is called by trusted workflow steps and
// does not check the caller's identity.
func (s *actionService) RunAction(ctx context.Context, req *dto.RunActionRequest) (*dto.RunActionResponse, error) {
	if strings.TrimSpace(req.ServiceId) == "" || strings.TrimSpace(req.ActionKey) == "" {
		return nil, apperror.Validation("serviceId and actionKey are required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	svc, err := uow.MembraneServiceRepository().FindOne(ctx, specification.ByID{ID: req.ServiceId})
	if err != nil {
		s.logger.Error("ActionService", "Failed to load service", map[string]interface{}{
			"service_id": req.ServiceId,
			"error":      err.Error(),
		})
		return nil, apperror.Internal("Membrane action failed", err)
	}
	if svc == nil {
		return nil, apperror.NotFound(fmt.Sprintf("Membrane service not found: %s", req.ServiceId))
	}
	if !svc.IsConnected() {
		return nil, apperror.Validation(fmt.Sprintf("No connection established for %s. Please connect your account first.", svc.Name))
	}

	owner := dto.AuthUser{Id: svc.UserId}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: svc.UserId})
	if err != nil {
		s.logger.Warn("ActionService", "Failed to load service owner, minting without name", map[string]interface{}{
			"user_id": svc.UserId,
			"error":   err.Error(),
		})
	} else if user != nil {
		owner.Name = user.Name
	}

	token, err := mintFor(s.minter, owner, "Failed to generate Membrane token")
	if err != nil {
		return nil, err
	}

	output, err := s.api.RunAction(ctx, token, req.ActionKey, *svc.ConnectionId, req.Input)
	if err != nil {
		s.logger.Error("ActionService", "Membrane action failed", map[string]interface{}{
			"service_id": svc.Id,
			"action_key": req.ActionKey,
			"error":      err.Error(),
		})
		return nil, apperror.Upstream(0, upstreamMessage(err, "Membrane action failed"), err)
	}

	return &dto.RunActionResponse{Success: true, Output: output}, nil
}
