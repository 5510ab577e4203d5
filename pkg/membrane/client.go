// Package membrane talks to the Integration Backend REST API.
package membrane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIURI = "https://api.integration.app"

// HTTPError is returned when the platform answers with a non-2xx status.
type HTTPError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("membrane %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
}

func NewClient(baseURL string, timeout time.Duration, metrics *Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURI
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

type listResponse struct {
	Items []json.RawMessage `json:"items"`
}

type searchResult struct {
	ElementType string          `json:"elementType"`
	Element     json.RawMessage `json:"element"`
}

type searchResponse struct {
	Items []searchResult `json:"items"`
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, token string, body interface{}, out interface{}) error {
	started := time.Now()
	outcome := "error"
	defer func() { c.metrics.observe(operation, outcome, started) }()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "http_" + strconv.Itoa(resp.StatusCode)
		return &HTTPError{Operation: operation, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	outcome = "ok"
	return nil
}

// Search runs the generic search endpoint for one element type and returns
// the raw elements.
func (c *Client) Search(ctx context.Context, token, elementType, query string) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("elementType", elementType)
	params.Set("q", query)

	var resp searchResponse
	if err := c.do(ctx, "search_"+elementType, http.MethodGet, "/search", params, token, nil, &resp); err != nil {
		return nil, err
	}

	elements := make([]json.RawMessage, 0, len(resp.Items))
	for _, item := range resp.Items {
		if len(item.Element) > 0 {
			elements = append(elements, item.Element)
		}
	}
	return elements, nil
}

// List reads a list endpoint such as "integrations" or "external-apps".
func (c *Client) List(ctx context.Context, token, endpoint string, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp listResponse
	if err := c.do(ctx, "list_"+endpoint, http.MethodGet, "/"+endpoint, params, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ActionFilter scopes an action listing. ConnectionID wins when both are set.
type ActionFilter struct {
	ExternalAppID string
	ConnectionID  string
}

func (c *Client) ListActions(ctx context.Context, token string, filter ActionFilter, limit int) ([]Action, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if filter.ConnectionID != "" {
		params.Set("connectionId", filter.ConnectionID)
	} else if filter.ExternalAppID != "" {
		params.Set("externalAppId", filter.ExternalAppID)
	}

	var resp listResponse
	if err := c.do(ctx, "list_actions", http.MethodGet, "/actions", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return ParseActions(resp.Items), nil
}

type runActionRequest struct {
	Input        map[string]interface{} `json:"input"`
	ConnectionID string                 `json:"connectionId"`
}

// RunAction invokes an action scoped to a connection. It returns the
// response's "output" field, or the whole body when there is none.
func (c *Client) RunAction(ctx context.Context, token, actionKey, connectionID string, input map[string]interface{}) (json.RawMessage, error) {
	if input == nil {
		input = map[string]interface{}{}
	}

	var body json.RawMessage
	path := "/actions/" + url.PathEscape(actionKey) + "/run"
	req := runActionRequest{Input: input, ConnectionID: connectionID}
	if err := c.do(ctx, "run_action", http.MethodPost, path, nil, token, req, &body); err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if json.Unmarshal(body, &envelope) == nil {
		if output, ok := envelope["output"]; ok && string(output) != "null" {
			return output, nil
		}
	}
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	return body, nil
}

type createSessionRequest struct {
	Prompt    string `json:"prompt"`
	AgentName string `json:"agentName,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateAgentSession(ctx context.Context, token, prompt, agentName string) (string, error) {
	var resp createSessionResponse
	req := createSessionRequest{Prompt: prompt, AgentName: agentName}
	if err := c.do(ctx, "create_agent_session", http.MethodPost, "/agent/sessions", nil, token, req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create_agent_session: response carried no session id")
	}
	return resp.ID, nil
}

// GetAgentSession reads a session's status. wait and timeout are forwarded
// verbatim when non-empty; wait=1 turns the call into a long poll.
func (c *Client) GetAgentSession(ctx context.Context, token, sessionID, wait, timeout string) (*SessionStatus, error) {
	params := url.Values{}
	if wait != "" {
		params.Set("wait", wait)
	}
	if timeout != "" {
		params.Set("timeout", timeout)
	}

	var status SessionStatus
	path := "/agent/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, "get_agent_session", http.MethodGet, path, params, token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
