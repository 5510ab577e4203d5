package service

import (
	"context"
	"fmt"
	"strings"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/events"
)

// IAgentSessionService proxies agent sessions to the Integration Backend
// with a token minted for the caller.
type IAgentSessionService interface {
	Create(ctx context.Context, user dto.AuthUser, req *dto.CreateAgentSessionRequest) (*dto.CreateAgentSessionResponse, error)
	Status(ctx context.Context, user dto.AuthUser, sessionId, wait, timeout string) (*dto.AgentSessionStatusResponse, error)
}

type agentSessionService struct {
	api       MembraneAPI
	minter    TokenMinter
	publisher events.Publisher
	logger    logger.ILogger
}

func NewAgentSessionService(api MembraneAPI, minter TokenMinter, publisher events.Publisher, logger logger.ILogger) IAgentSessionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &agentSessionService{api: api, minter: minter, publisher: publisher, logger: logger}
}

func (s *agentSessionService) Create(ctx context.Context, user dto.AuthUser, req *dto.CreateAgentSessionRequest) (*dto.CreateAgentSessionResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apperror.Validation("prompt is required")
	}

	token, err := mintFor(s.minter, user, "Failed to create agent session")
	if err != nil {
		return nil, err
	}

	sessionId, err := s.api.CreateAgentSession(ctx, token, req.Prompt, req.AgentName)
	if err != nil {
		s.logger.Error("AgentSessionService", "Failed to create session", map[string]interface{}{
			"user_id":    user.Id,
			"agent_name": req.AgentName,
			"error":      err.Error(),
		})
		if status := upstreamStatus(err); status > 0 {
			return nil, apperror.Upstream(status, fmt.Sprintf("Failed to create agent session: %d", status), err)
		}
		return nil, apperror.Internal("Failed to create agent session", err)
	}

	if err := s.publisher.Publish(ctx, events.NewAgentSessionCreated(user.Id, sessionId, req.AgentName)); err != nil {
		s.logger.Warn("AgentSessionService", "Failed to publish event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	return &dto.CreateAgentSessionResponse{SessionId: sessionId}, nil
}

// Status reads a session. wait and timeout are forwarded as given, so
// wait=1 holds the request open until the session changes or times out.
func (s *agentSessionService) Status(ctx context.Context, user dto.AuthUser, sessionId, wait, timeout string) (*dto.AgentSessionStatusResponse, error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, apperror.Validation("sessionId is required")
	}

	token, err := mintFor(s.minter, user, "Failed to poll session status")
	if err != nil {
		return nil, err
	}

	status, err := s.api.GetAgentSession(ctx, token, sessionId, wait, timeout)
	if err != nil {
		s.logger.Error("AgentSessionService", "Failed to poll session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		if code := upstreamStatus(err); code > 0 {
			return nil, apperror.Upstream(code, fmt.Sprintf("Failed to poll session: %d", code), err)
		}
		return nil, apperror.Internal("Failed to poll session status", err)
	}
	return status, nil
}
