package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/membrane"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListActionsRequiresAnIdentifier(t *testing.T) {
	svc := NewActionService(newMemoryStore(), new(mockAPI), &stubMinter{}, logger.NewNopLogger())
	_, err := svc.ListActions(context.Background(), alice, "", " ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, "externalAppId or connectionId is required", err.Error())
}

func TestListActionsMapsItems(t *testing.T) {
	api := new(mockAPI)
	api.On("ListActions", mock.Anything, "tok-u1", membrane.ActionFilter{ConnectionID: "conn-1"}, 100).Return([]membrane.Action{
		{ID: "send-message", Name: "Send message", Description: "Posts to a channel",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string","description":"Body"}},"required":["text"]}`)},
		{ID: "list-channels"},
	}, nil)

	svc := NewActionService(newMemoryStore(), api, &stubMinter{}, logger.NewNopLogger())
	res, err := svc.ListActions(context.Background(), alice, "", "conn-1")
	require.NoError(t, err)
	require.Len(t, res.Actions, 2)

	first := res.Actions[0]
	assert.Equal(t, "send-message", first.Key)
	require.NotNil(t, first.InputSchema)
	assert.Equal(t, "object", first.InputSchema.Type)
	assert.Equal(t, "Body", first.InputSchema.Properties["text"].Description)
	assert.Equal(t, []string{"text"}, first.InputSchema.Required)

	assert.Equal(t, "list-channels", res.Actions[1].Name)
	assert.Nil(t, res.Actions[1].InputSchema)
}

func TestListActionsPropagatesUpstreamStatus(t *testing.T) {
	api := new(mockAPI)
	api.On("ListActions", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &membrane.HTTPError{Operation: "list_actions", StatusCode: http.StatusForbidden, Body: "secret detail"})

	svc := NewActionService(newMemoryStore(), api, &stubMinter{}, logger.NewNopLogger())
	_, err := svc.ListActions(context.Background(), alice, "app-1", "")

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "Failed to fetch actions", appErr.Message)
}

func TestRunActionValidatesInput(t *testing.T) {
	svc := NewActionService(newMemoryStore(), new(mockAPI), &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1"})
	assert.Equal(t, "serviceId and actionKey are required", err.Error())
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestRunActionUnknownService(t *testing.T) {
	svc := NewActionService(newMemoryStore(), new(mockAPI), &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "nope", ActionKey: "k"})
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
	assert.Equal(t, "Membrane service not found: nope", err.Error())
}

func TestRunActionRequiresConnection(t *testing.T) {
	store := newMemoryStore()
	store.services["s1"] = &entity.MembraneService{Id: "s1", UserId: "u1", Name: "Slack"}
	api := new(mockAPI)

	svc := NewActionService(store, api, &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1", ActionKey: "send-message"})

	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.Equal(t, "No connection established for Slack. Please connect your account first.", err.Error())
	api.AssertNotCalled(t, "RunAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunActionMintsForOwnerAndRuns(t *testing.T) {
	store := newMemoryStore()
	store.services["s1"] = &entity.MembraneService{Id: "s1", UserId: "u1", Name: "Slack", ConnectionId: strPtr("conn-1")}
	store.users["u1"] = &entity.User{Id: "u1", Name: "Alice"}
	minter := &stubMinter{}
	input := map[string]interface{}{"text": "hi"}

	api := new(mockAPI)
	api.On("RunAction", mock.Anything, "tok-u1", "send-message", "conn-1", input).
		Return(json.RawMessage(`{"ts":"1"}`), nil)

	svc := NewActionService(store, api, minter, logger.NewNopLogger())
	res, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1", ActionKey: "send-message", Input: input})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.JSONEq(t, `{"ts":"1"}`, string(res.Output))
	assert.Equal(t, []string{"u1|Alice"}, minter.calls)
}

func TestRunActionUpstreamFailure(t *testing.T) {
	store := newMemoryStore()
	store.services["s1"] = &entity.MembraneService{Id: "s1", UserId: "u1", Name: "Slack", ConnectionId: strPtr("conn-1")}

	api := new(mockAPI)
	api.On("RunAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: refused"))

	svc := NewActionService(store, api, &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1", ActionKey: "k"})

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUpstream, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "Membrane action failed", appErr.Message)
}

func TestListActionsKeepsSchemaWithNullableProperty(t *testing.T) {
	api := new(mockAPI)
	api.On("ListActions", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]membrane.Action{
		{ID: "reply", InputSchema: json.RawMessage(`{
			"type":"object",
			"properties":{
				"channel":{"type":"string","description":"Channel id"},
				"thread":{"type":["null","string"]},
				"broken":"not a property",
				"meta":{"type":{"weird":true},"description":7}
			},
			"required":["channel",3]
		}`)},
	}, nil)

	svc := NewActionService(newMemoryStore(), api, &stubMinter{}, logger.NewNopLogger())
	res, err := svc.ListActions(context.Background(), alice, "", "conn-1")
	require.NoError(t, err)
	require.Len(t, res.Actions, 1)

	schema := res.Actions[0].InputSchema
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"channel"}, schema.Required)
	assert.Equal(t, map[string]dto.ActionSchemaProperty{
		"channel": {Type: "string", Description: "Channel id"},
		"thread":  {Type: "string"},
		"meta":    {},
	}, schema.Properties)
}

func TestRunActionReturnsUpstreamMessage(t *testing.T) {
	store := newMemoryStore()
	store.services["s1"] = &entity.MembraneService{Id: "s1", UserId: "u1", Name: "Slack", ConnectionId: strPtr("conn-1")}

	api := new(mockAPI)
	api.On("RunAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &membrane.HTTPError{Operation: "run_action", StatusCode: http.StatusUnprocessableEntity, Body: `{"message":"channel_not_found"}`})

	svc := NewActionService(store, api, &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1", ActionKey: "send-message"})

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "channel_not_found", appErr.Message)
}

func TestRunActionUnreadableUpstreamBody(t *testing.T) {
	store := newMemoryStore()
	store.services["s1"] = &entity.MembraneService{Id: "s1", UserId: "u1", Name: "Slack", ConnectionId: strPtr("conn-1")}

	api := new(mockAPI)
	api.On("RunAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &membrane.HTTPError{Operation: "run_action", StatusCode: http.StatusBadGateway, Body: "<html>bad gateway</html>"})

	svc := NewActionService(store, api, &stubMinter{}, logger.NewNopLogger())
	_, err := svc.RunAction(context.Background(), &dto.RunActionRequest{ServiceId: "s1", ActionKey: "send-message"})

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Membrane action failed", appErr.Message)
}
