// Package apiclient calls the membrane-connect HTTP API on behalf of a
// signed-in user. It backs the agent session orchestrator, the action
// picker and the membranectl CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/pkg/membrane"
)

// APIError carries a non-2xx answer. Message is the server's "error" field
// when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for baseURL (for example http://localhost:3000/api).
// The timeout must exceed the 30 second long-poll window of SessionStatus.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errBody)
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) Token(ctx context.Context) (string, error) {
	var res dto.TokenResponse
	if err := c.do(ctx, http.MethodGet, "/membrane/token", nil, nil, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) SearchConnectibles(ctx context.Context, query string) ([]dto.Connectible, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	var res dto.SearchConnectiblesResponse
	if err := c.do(ctx, http.MethodGet, "/connectibles/search", q, nil, &res); err != nil {
		return nil, err
	}
	return res.Connectibles, nil
}

func (c *Client) ListServices(ctx context.Context) ([]*dto.MembraneServiceResponse, error) {
	var res dto.ListMembraneServicesResponse
	if err := c.do(ctx, http.MethodGet, "/membrane/integrations", nil, nil, &res); err != nil {
		return nil, err
	}
	if res.Services == nil {
		res.Services = []*dto.MembraneServiceResponse{}
	}
	return res.Services, nil
}

func (c *Client) CreateService(ctx context.Context, req dto.CreateMembraneServiceRequest) (*dto.MembraneServiceResponse, error) {
	var res dto.MembraneServiceEnvelope
	if err := c.do(ctx, http.MethodPost, "/membrane/integrations", nil, req, &res); err != nil {
		return nil, err
	}
	return res.Service, nil
}

// ConnectService records connectionID on the service. An empty
// connectionID clears the connection.
func (c *Client) ConnectService(ctx context.Context, serviceID, connectionID string) (*dto.MembraneServiceResponse, error) {
	req := dto.UpdateMembraneServiceRequest{Id: serviceID}
	if connectionID != "" {
		req.ConnectionId = &connectionID
	}
	var res dto.MembraneServiceEnvelope
	if err := c.do(ctx, http.MethodPatch, "/membrane/integrations", nil, req, &res); err != nil {
		return nil, err
	}
	return res.Service, nil
}

func (c *Client) ListActions(ctx context.Context, externalAppID, connectionID string) ([]dto.MembraneAction, error) {
	q := url.Values{}
	if externalAppID != "" {
		q.Set("externalAppId", externalAppID)
	}
	if connectionID != "" {
		q.Set("connectionId", connectionID)
	}
	var res dto.ListActionsResponse
	if err := c.do(ctx, http.MethodGet, "/membrane/actions", q, nil, &res); err != nil {
		return nil, err
	}
	return res.Actions, nil
}

// RunAction calls the run endpoint. A non-2xx answer is returned as
// *APIError; the body's error message is preserved.
func (c *Client) RunAction(ctx context.Context, req dto.RunActionRequest) (*dto.RunActionResponse, error) {
	var res dto.RunActionResponse
	if err := c.do(ctx, http.MethodPost, "/membrane/actions/run", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateSession(ctx context.Context, prompt, agentName string) (string, error) {
	req := dto.CreateAgentSessionRequest{Prompt: prompt, AgentName: agentName}
	var res dto.CreateAgentSessionResponse
	if err := c.do(ctx, http.MethodPost, "/membrane/sessions", nil, req, &res); err != nil {
		return "", err
	}
	return res.SessionId, nil
}

// SessionStatus reads a session's status. With longPoll the request asks
// the server to hold it open for up to 30 seconds.
func (c *Client) SessionStatus(ctx context.Context, sessionID string, longPoll bool) (*membrane.SessionStatus, error) {
	q := url.Values{}
	q.Set("sessionId", sessionID)
	if longPoll {
		q.Set("wait", "1")
		q.Set("timeout", "30")
	}
	var res dto.AgentSessionStatusResponse
	if err := c.do(ctx, http.MethodGet, "/membrane/sessions", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
