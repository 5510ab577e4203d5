package service

import (
	"context"
	"encoding/json"
	"errors"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/membrane"
)

// MembraneAPI is the part of the Integration Backend client the services
// depend on. *membrane.Client satisfies it.
type MembraneAPI interface {
	Search(ctx context.Context, token, elementType, query string) ([]json.RawMessage, error)
	List(ctx context.Context, token, endpoint string, limit int) ([]json.RawMessage, error)
	ListActions(ctx context.Context, token string, filter membrane.ActionFilter, limit int) ([]membrane.Action, error)
	RunAction(ctx context.Context, token, actionKey, connectionID string, input map[string]interface{}) (json.RawMessage, error)
	CreateAgentSession(ctx context.Context, token, prompt, agentName string) (string, error)
	GetAgentSession(ctx context.Context, token, sessionID, wait, timeout string) (*membrane.SessionStatus, error)
}

type TokenMinter interface {
	Mint(userID, userName string) (string, error)
}

// mintFor signs a token for user. Configuration errors pass through with
// their own message; anything else is reported with fallback.
func mintFor(minter TokenMinter, user dto.AuthUser, fallback string) (string, error) {
	token, err := minter.Mint(user.Id, user.Name)
	if err != nil {
		if apperror.Is(err, apperror.KindConfiguration) {
			return "", err
		}
		return "", apperror.Internal(fallback, err)
	}
	return token, nil
}

// upstreamStatus returns the platform's HTTP status for err, or 0 when the
// platform was not reached.
func upstreamStatus(err error) int {
	var httpErr *membrane.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
