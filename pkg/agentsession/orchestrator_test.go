package agentsession

import (
	"context"
	"net/http"
	"testing"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/pkg/apiclient"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/connectible"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionRegistersServiceOnIdle(t *testing.T) {
	h := newHarness(t)
	h.backend.createID = "sess-1"
	h.backend.replies["sess-1"] = []statusReply{reply("running", "busy"), reply("running", "idle")}
	h.backend.connectibles = []dto.Connectible{
		{Name: "Acme Tools", ConnectParameters: connectible.ConnectParameters{ConnectorID: "c-other"}},
		{
			Name:              "acme",
			LogoURI:           "https://logo",
			ConnectParameters: connectible.ConnectParameters{ConnectorID: "c1"},
			ExternalApp:       &connectible.ExternalAppRef{ID: "a1"},
		},
	}

	session, err := h.orch.StartBuildSession(context.Background(), "Acme", "https://acme.io")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.SessionID)
	h.wait(t)

	assert.Equal(t, []string{BuildAgentName}, h.backend.agentNames)
	assert.Contains(t, h.backend.prompts[0], "App URL: https://acme.io")

	require.Len(t, h.backend.created, 1)
	assert.Equal(t, dto.CreateMembraneServiceRequest{
		Name: "acme", LogoUri: "https://logo", ConnectorId: "c1", ExternalAppId: "a1",
	}, h.backend.created[0])

	require.Len(t, h.state.Services(), 1)
	assert.Empty(t, h.persistedIDs(t))
	assert.False(t, h.orch.IsBuilding())

	assert.Equal(t, []notification{
		{Kind: "loading", ID: "agent-session-pending-build", Message: "Building Acme integration. This usually takes a couple of minutes..."},
		{Kind: "dismiss", ID: "agent-session-pending-build"},
		{Kind: "loading", ID: "agent-session-sess-1", Message: "Building Acme integration. This usually takes a couple of minutes..."},
		{Kind: "success", ID: "agent-session-sess-1", Message: "Acme integration built! You can find it in the services list."},
	}, h.notifier.all())
}

func TestBuildFallsBackToFirstSearchResult(t *testing.T) {
	h := newHarness(t)
	h.backend.createID = "sess-1"
	h.backend.replies["sess-1"] = []statusReply{reply("completed", "")}
	h.backend.connectibles = []dto.Connectible{
		{Name: "Acme Cloud", Connector: &connectible.ConnectorRef{ID: "c9"}},
	}

	_, err := h.orch.StartBuildSession(context.Background(), "Acme", "")
	require.NoError(t, err)
	h.wait(t)

	require.Len(t, h.backend.created, 1)
	assert.Equal(t, "Acme Cloud", h.backend.created[0].Name)
	assert.Equal(t, "c9", h.backend.created[0].ConnectorId)
}

func TestAddActionRetriesThenBumpsRefetch(t *testing.T) {
	h := newHarness(t)
	h.backend.createID = "sess-2"
	h.backend.replies["sess-2"] = []statusReply{
		{err: errNetwork},
		{err: &apiclient.APIError{StatusCode: http.StatusBadGateway}},
		reply("running", "busy"),
		reply("completed", "idle"),
	}

	_, err := h.orch.StartAddActionSession(context.Background(), AddActionRequest{
		ServiceName: "Slack", ExternalAppID: "a1", ConnectorID: "c1", ConnectionID: "conn-1",
		Description: "post a message",
	})
	require.NoError(t, err)
	h.wait(t)

	assert.Equal(t, []string{""}, h.backend.agentNames)
	assert.Equal(t, 4, h.backend.longPollCount("sess-2"))
	assert.Equal(t, 1, h.state.ActionsRefetch())
	assert.Empty(t, h.backend.created)
	assert.Empty(t, h.persistedIDs(t))

	success := h.notifier.ofKind("success")
	require.Len(t, success, 1)
	assert.Equal(t, "New action added to Slack!", success[0].Message)
}

func TestFailedSessionNotifiesAndForgets(t *testing.T) {
	for status, want := range map[string]string{
		"failed":    "Failed building Acme integration. Please try again.",
		"cancelled": "Session cancelled while building Acme integration.",
	} {
		h := newHarness(t)
		h.backend.createID = "sess-f"
		h.backend.replies["sess-f"] = []statusReply{reply(status, "idle")}

		_, err := h.orch.StartBuildSession(context.Background(), "Acme", "")
		require.NoError(t, err)
		h.wait(t)

		errs := h.notifier.ofKind("error")
		require.Len(t, errs, 1, status)
		assert.Equal(t, want, errs[0].Message)
		assert.Equal(t, "agent-session-sess-f", errs[0].ID)
		assert.Empty(t, h.notifier.ofKind("success"), status)
		assert.Empty(t, h.backend.created, status)
		assert.Empty(t, h.persistedIDs(t), status)
	}
}

func TestStartFailureUsesServerMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.createErr = &apiclient.APIError{StatusCode: http.StatusBadRequest, Message: "prompt is required"}

	_, err := h.orch.StartBuildSession(context.Background(), "Acme", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	errs := h.notifier.ofKind("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "agent-session-pending-build", errs[0].ID)
	assert.Equal(t, "prompt is required", errs[0].Message)
	assert.Empty(t, h.persistedIDs(t))
	assert.False(t, h.orch.IsBuilding())
}

func TestStartTransportFailureUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.backend.createErr = errNetwork

	_, err := h.orch.StartAddActionSession(context.Background(), AddActionRequest{ServiceName: "Slack", Description: "x"})
	require.Error(t, err)

	errs := h.notifier.ofKind("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "agent-session-pending-action", errs[0].ID)
	assert.Equal(t, "Failed to start action creation", errs[0].Message)
}

func TestStartValidatesInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.StartBuildSession(context.Background(), "  ", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = h.orch.StartAddActionSession(context.Background(), AddActionRequest{ServiceName: "Slack"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, h.backend.prompts)
}

func TestPollIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.backend.block = make(chan struct{})
	h.backend.replies["sess-1"] = []statusReply{reply("completed", "")}
	session := StoredSession{Type: TypeAddAction, SessionID: "sess-1", ServiceName: "Slack"}

	assert.True(t, h.orch.Poll(context.Background(), session))
	assert.False(t, h.orch.Poll(context.Background(), session))
	assert.Equal(t, []string{"sess-1"}, h.orch.ActiveSessionIDs())
	assert.True(t, h.orch.IsBuilding())

	close(h.backend.block)
	h.wait(t)

	assert.Equal(t, 1, h.backend.longPollCount("sess-1"))
	assert.Len(t, h.notifier.ofKind("loading"), 1)
	assert.Len(t, h.notifier.ofKind("success"), 1)
	assert.Equal(t, 1, h.state.ActionsRefetch())
}

func TestCancelStopsLoopAndKeepsRecord(t *testing.T) {
	h := newHarness(t)
	h.backend.block = make(chan struct{})
	t.Cleanup(func() { close(h.backend.block) })
	h.backend.replies["sess-1"] = []statusReply{reply("completed", "")}

	session := StoredSession{Type: TypeAddAction, SessionID: "sess-1", ServiceName: "Slack"}
	require.NoError(t, h.sessions.Add(context.Background(), session))
	require.True(t, h.orch.Poll(context.Background(), session))

	require.Eventually(t, func() bool { return h.backend.longPollCount("sess-1") == 1 }, time.Second, time.Millisecond)
	assert.True(t, h.orch.Cancel("sess-1"))
	assert.False(t, h.orch.Cancel("sess-1"))
	h.wait(t)

	assert.False(t, h.orch.IsBuilding())
	assert.Equal(t, []string{"sess-1"}, h.persistedIDs(t))
	assert.Empty(t, h.notifier.ofKind("success"))
	assert.Equal(t, 0, h.state.ActionsRefetch())
}

func TestParentContextCancelStopsRetries(t *testing.T) {
	h := newHarness(t)
	h.orch.WithRetryDelay(time.Hour)
	h.backend.replies["sess-1"] = []statusReply{{err: errNetwork}}

	ctx, cancel := context.WithCancel(context.Background())
	h.orch.Poll(ctx, StoredSession{Type: TypeAddAction, SessionID: "sess-1", ServiceName: "Slack"})
	require.Eventually(t, func() bool { return h.backend.longPollCount("sess-1") == 1 }, time.Second, time.Millisecond)

	cancel()
	h.wait(t)
	assert.False(t, h.orch.IsBuilding())
}

func TestResumeHandlesEveryOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stored := []StoredSession{
		{Type: TypeAddAction, SessionID: "done", ServiceName: "Slack"},
		{Type: TypeBuildIntegration, SessionID: "failed", AppName: "Acme"},
		{Type: TypeBuildIntegration, SessionID: "gone", AppName: "Ghost"},
		{Type: TypeAddAction, SessionID: "running", ServiceName: "Jira"},
	}
	for _, s := range stored {
		require.NoError(t, h.sessions.Add(ctx, s))
	}
	h.backend.replies["done"] = []statusReply{reply("completed", "")}
	h.backend.replies["failed"] = []statusReply{reply("failed", "")}
	h.backend.replies["running"] = []statusReply{reply("running", "busy"), reply("running", "busy"), reply("completed", "")}

	require.NoError(t, h.orch.Resume(ctx))
	h.wait(t)

	assert.Empty(t, h.persistedIDs(t))
	assert.Equal(t, 2, h.state.ActionsRefetch())
	assert.Equal(t, 0, h.backend.longPollCount("done"))
	assert.Equal(t, 2, h.backend.longPollCount("running"))

	errs := h.notifier.ofKind("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Failed building Acme integration. Please try again.", errs[0].Message)

	success := h.notifier.ofKind("success")
	require.Len(t, success, 1)
	assert.Equal(t, "agent-session-running", success[0].ID)
}

func TestResumeLegacySessionBuildsService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.storage.Set(ctx, StorageKey, `{"sessionId":"old","appName":"Acme"}`))
	h.backend.replies["old"] = []statusReply{reply("running", "idle")}
	h.backend.connectibles = []dto.Connectible{{Name: "Acme", ConnectParameters: connectible.ConnectParameters{ConnectorID: "c1"}}}

	require.NoError(t, h.orch.Resume(ctx))
	h.wait(t)

	require.Len(t, h.backend.created, 1)
	assert.Equal(t, "c1", h.backend.created[0].ConnectorId)
	assert.Len(t, h.state.Services(), 1)
	assert.Empty(t, h.persistedIDs(t))
	assert.Empty(t, h.notifier.all())
}
