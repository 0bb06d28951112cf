// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/api/apitest"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := api.NewClientWithConfig(&api.ClientConfig{})

	if client.BaseURL() != api.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL(), api.DefaultBaseURL)
	}
	if client.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.Timeout())
	}
}

func TestNewClientWithConfig_TrimsTrailingSlash(t *testing.T) {
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: "http://robot.lan:8000/api/v1/"})

	if client.BaseURL() != "http://robot.lan:8000/api/v1" {
		t.Errorf("BaseURL = %q, want trailing slash removed", client.BaseURL())
	}
}

func TestNewClient_NilConfig(t *testing.T) {
	client := api.NewClientWithConfig(nil)
	if client.BaseURL() != api.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", client.BaseURL())
	}
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestClient_RobotStatus(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetStatus(api.RobotStatus{State: api.StateCleaning, Battery: 72})

	status, err := srv.Client().RobotStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StateCleaning, status.State)
	assert.Equal(t, 72, status.Battery)
	assert.False(t, status.HasError())
}

func TestClient_RobotStatus_WithRobotError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetStatus(api.RobotStatus{State: api.StateError, Battery: 40, Error: "Wheel stuck"})

	status, err := srv.Client().RobotStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasError())
	assert.Equal(t, "Wheel stuck", status.Error)
}

func TestClient_Health(t *testing.T) {
	srv := apitest.NewServer(t)

	health, err := srv.Client().Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.Equal(t, "connected", health.Valetudo)

	srv.SetHealth(api.HealthResponse{Status: "degraded", Valetudo: "disconnected"})
	health, err = srv.Client().Health(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy())
}

func TestClient_RobotInfoAndCapabilities(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.Client()

	info, err := client.RobotInfo(context.Background())
	require.NoError(t, err)
	fields, err := info.Fields()
	require.NoError(t, err)
	assert.Equal(t, "Dreame", fields["manufacturer"])

	caps, err := client.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Contains(t, caps.Indent(), "LocateCapability")

	// Capabilities is an array, not an object
	_, err = caps.Fields()
	assert.Error(t, err)
}

func TestClient_Commands(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.Client()
	ctx := context.Background()

	calls := []func(context.Context) (*api.Ack, error){
		client.Start, client.Stop, client.Pause, client.ReturnHome, client.Locate,
	}
	for _, call := range calls {
		ack, err := call(ctx)
		require.NoError(t, err)
		assert.Equal(t, "success", ack.Status)
	}

	assert.Equal(t, []string{"start", "stop", "pause", "home", "locate"}, srv.Commands())
	assert.Empty(t, srv.LastBody(apitest.RouteCommand), "commands carry no body")
}

func TestClient_Command_Unknown(t *testing.T) {
	srv := apitest.NewServer(t)

	_, err := srv.Client().Command(context.Background(), api.RobotCommand("dance"))
	require.Error(t, err)

	var clientErr *api.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, api.ErrTypeInvalidRequest, clientErr.Type)
	assert.Equal(t, 0, srv.Calls(apitest.RouteCommand))
}

func TestClient_Chat_SendsIncludeContext(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetChatReply("Battery is at 72%.")

	resp, err := srv.Client().Chat(context.Background(), "battery level?")
	require.NoError(t, err)
	assert.Equal(t, "Battery is at 72%.", resp.Response)
	assert.Equal(t, "local", resp.ModelUsed)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(srv.LastBody(apitest.RouteChat), &sent))
	assert.Equal(t, "battery level?", sent["message"])
	assert.Equal(t, true, sent["include_context"])
}

func TestClient_Chat_OmitContext(t *testing.T) {
	srv := apitest.NewServer(t)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL(), OmitContext: true})

	_, err := client.Chat(context.Background(), "hello")
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(srv.LastBody(apitest.RouteChat), &sent))
	assert.Equal(t, false, sent["include_context"])
}

func TestClient_ModelsAndSwitch(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetModels("local", "local", "openai", "anthropic")
	client := srv.Client()

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", models.Current)
	assert.Equal(t, []string{"local", "openai", "anthropic"}, models.Available)

	ack, err := client.SwitchModel(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", ack.CurrentModel)
	assert.Equal(t, "openai", srv.CurrentModel())

	_, err = client.SwitchModel(context.Background(), "gemini")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
	assert.Equal(t, "Invalid model type: gemini", api.Message(err, "fallback"))
}

func TestClient_Models_NullAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":"local","available":null}`))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, models.Available)
	assert.Empty(t, models.Available)
}

func TestClient_HistoryAndClear(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.Client()
	ctx := context.Background()

	history, err := client.History(ctx)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	_, err = client.Chat(ctx, "hello")
	require.NoError(t, err)

	history, err = client.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, api.RoleUser, history[0].Role)
	assert.Equal(t, api.RoleAssistant, history[1].Role)

	ack, err := client.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "History cleared", ack.Message)
	assert.Empty(t, srv.History())
}

func TestClient_SetsRequestID(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.Client()

	_, err := client.RobotStatus(context.Background())
	require.NoError(t, err)
	_, err = client.RobotStatus(context.Background())
	require.NoError(t, err)

	ids := srv.RequestIDs()
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestClient_HTTPError_StringDetail(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Fail(apitest.RouteStatus, http.StatusInternalServerError, "Valetudo unreachable")

	_, err := srv.Client().RobotStatus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrHTTPStatus))
	assert.Equal(t, 500, api.StatusCode(err))
	assert.Equal(t, "Valetudo unreachable", err.Error())
}

func TestClient_HTTPError_NoDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, "request failed with status code 502", err.Error())
}

func TestClient_HTTPError_ListDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"field required"}]}`))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	_, err := client.Chat(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 422")
	assert.Contains(t, err.Error(), "field required")
}

func TestClient_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":`))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	_, err := client.RobotStatus(context.Background())

	var clientErr *api.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, api.ErrTypeInvalidResponse, clientErr.Type)
}

func TestClient_EmptyBodyAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	ack, err := client.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.Ack{}, *ack)
}

func TestClient_NonJSONAck(t *testing.T) {
	var cleared bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ai/clear-history" {
			cleared = true
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})

	ack, err := client.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.Ack{}, *ack)

	ack, err = client.ClearHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.Ack{}, *ack)
	assert.True(t, cleared)

	ack, err = client.SwitchModel(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, api.Ack{}, *ack)
}

func TestClient_NonJSONStatusStillFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL})
	_, err := client.RobotStatus(context.Background())

	var clientErr *api.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, api.ErrTypeInvalidResponse, clientErr.Type)
}

func TestClient_Timeout(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Delay(apitest.RouteStatus, 2*time.Second)

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: srv.URL(), Timeout: 50 * time.Millisecond})
	_, err := client.RobotStatus(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsTimeout(err), "want timeout, got %v", err)
	assert.True(t, errors.Is(err, api.ErrTimeout))
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := apitest.NewServer(t)
	url := srv.URL()
	srv.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: url})
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsConnection(err), "want connection error, got %v", err)
	assert.Equal(t, "cannot reach automation API", api.Message(err, ""))
}

func TestClient_Canceled(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Delay(apitest.RouteStatus, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := srv.Client().RobotStatus(ctx)

	var clientErr *api.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, api.ErrTypeCanceled, clientErr.Type)
}

// =============================================================================
// TYPE TESTS
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  api.RobotCommand
		ok    bool
	}{
		{"start", api.CommandStart, true},
		{"clean", api.CommandStart, true},
		{"dock", api.CommandHome, true},
		{"return", api.CommandHome, true},
		{"find", api.CommandLocate, true},
		{"pause", api.CommandPause, true},
		{"dance", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := api.ParseCommand(tc.input)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMessage_Fallback(t *testing.T) {
	if got := api.Message(nil, "Failed to connect to server"); got != "Failed to connect to server" {
		t.Errorf("Message(nil) = %q", got)
	}
	if got := api.Message(errors.New("boom"), "fallback"); got != "boom" {
		t.Errorf("Message(plain) = %q, want 'boom'", got)
	}
}

func TestDescriptor_RoundTrip(t *testing.T) {
	var d api.Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"a":1}`), &d))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(out))

	var empty api.Descriptor
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
