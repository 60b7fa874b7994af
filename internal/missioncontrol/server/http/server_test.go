package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

func newTestServer(t *testing.T, extra ...Option) (*httptest.Server, *orchestrator.Orchestrator) {
	t.Helper()
	orch := orchestrator.New(orchestrator.WithClock(clocktesting.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))))
	srv := httptest.NewServer(NewHandler(orch, extra...))
	t.Cleanup(srv.Close)
	return srv, orch
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestMissionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/v1/missions", `{"id":"MARS_001","name":"Mars Sample Return","objectives":["collect"]}`)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, _ = do(t, srv, http.MethodPost, "/api/v1/missions/MARS_001/start", "")
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, srv, http.MethodPost, "/api/v1/missions/MARS_001/commands", `{"type":"ignition"}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	var created CommandCreated
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "cmd_0001", created.CommandID)

	code, body = do(t, srv, http.MethodPost, "/api/v1/missions/MARS_001/commands/cmd_0001/execute", "")
	require.Equal(t, http.StatusOK, code, string(body))
	var cmd model.Command
	require.NoError(t, json.Unmarshal(body, &cmd))
	assert.Equal(t, model.CommandCompleted, cmd.Status)
	assert.Equal(t, "Engine ignited successfully", cmd.Result)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/missions/MARS_001/telemetry", `{"altitude":15000,"velocity":250,"fuel_level":75.5}`)
	require.Equal(t, http.StatusNoContent, code)

	code, body = do(t, srv, http.MethodGet, "/api/v1/active-mission", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"mission_id":"MARS_001"}`, string(body))

	code, body = do(t, srv, http.MethodGet, "/api/v1/missions/MARS_001", "")
	require.Equal(t, http.StatusOK, code)
	var st orchestrator.StatusSnapshot
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, model.MissionActive, st.Mission.Status)
	assert.Equal(t, 1, st.CompletedCommands)
	require.NotNil(t, st.LatestTelemetry)
	assert.Equal(t, model.DefaultSystemHealth, st.LatestTelemetry.SystemHealth)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/missions/MARS_001/complete", "")
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, srv, http.MethodGet, "/api/v1/missions", "")
	require.Equal(t, http.StatusOK, code)
	var all []model.MissionSummary
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 1)
	assert.Equal(t, model.MissionCompleted, all[0].Status)
	assert.Equal(t, 1, all[0].CommandsCount)
	assert.Equal(t, 1, all[0].TelemetryCount)

	code, _ = do(t, srv, http.MethodGet, "/api/v1/active-mission", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestErrorMapping(t *testing.T) {
	srv, orch := newTestServer(t)
	_, err := orch.CreateMission(context.Background(), orchestrator.CreateMissionRequest{ID: "M1", Name: "Test"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown mission", http.MethodGet, "/api/v1/missions/nope", "", http.StatusNotFound},
		{"duplicate", http.MethodPost, "/api/v1/missions", `{"id":"M1","name":"again"}`, http.StatusConflict},
		{"missing id", http.MethodPost, "/api/v1/missions", `{"name":"no id"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/missions", `{"id":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/missions", `{"id":"M2","colour":"red"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/v1/missions/M1/commands", "", http.StatusBadRequest},
		{"illegal transition", http.MethodPost, "/api/v1/missions/M1/complete", "", http.StatusConflict},
		{"command on planned mission", http.MethodPost, "/api/v1/missions/M1/commands", `{"type":"ignition"}`, http.StatusConflict},
		{"unknown command", http.MethodPost, "/api/v1/missions/M1/commands/cmd_0009/execute", "", http.StatusNotFound},
		{"unknown event", http.MethodPost, "/api/v1/missions/M1/launch", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/v1/missions/M1", "", http.StatusMethodNotAllowed},
		{"wrong method on collection", http.MethodPut, "/api/v1/missions", "", http.StatusMethodNotAllowed},
		{"unknown api path", http.MethodGet, "/api/v1/rockets", "", http.StatusNotFound},
		{"unknown root path", http.MethodGet, "/rockets", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code, string(body))

			var er ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			assert.NotEmpty(t, er.Error)
		})
	}
}

func TestTelemetryValidation(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()
	_, err := orch.CreateMission(ctx, orchestrator.CreateMissionRequest{ID: "M1", Name: "Test"})
	require.NoError(t, err)
	require.NoError(t, orch.StartMission(ctx, "M1"))

	code, _ := do(t, srv, http.MethodPost, "/api/v1/missions/M1/telemetry", `{"altitude":1,"velocity":1,"fuel_level":100.5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	m, err := orch.GetMission(ctx, "M1")
	require.NoError(t, err)
	assert.Empty(t, m.Telemetry)
}

func TestFailedCommandIsNotAnHTTPError(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()
	_, err := orch.CreateMission(ctx, orchestrator.CreateMissionRequest{ID: "M1", Name: "Test"})
	require.NoError(t, err)
	require.NoError(t, orch.StartMission(ctx, "M1"))
	id, err := orch.SendCommand(ctx, "M1", orchestrator.SendCommandRequest{Type: "adjust_course"})
	require.NoError(t, err)

	code, body := do(t, srv, http.MethodPost, "/api/v1/missions/M1/commands/"+id+"/execute", "")
	require.Equal(t, http.StatusOK, code)
	var cmd model.Command
	require.NoError(t, json.Unmarshal(body, &cmd))
	assert.Equal(t, model.CommandFailed, cmd.Status)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/missions/M1/commands/"+id+"/execute", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestProbesAndMetrics(t *testing.T) {
	var brokerErr error
	srv, _ := newTestServer(t, WithReadinessCheck("mqtt", func(context.Context) error { return brokerErr }))

	code, body := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", string(body))

	code, _ = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, code)

	brokerErr = errors.New("not connected")
	code, body = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"mqtt":"not connected"}`, string(body))

	do(t, srv, http.MethodGet, "/api/v1/missions", "")
	code, body = do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `missioncontrol_http_request_duration_seconds_count{code="200",method="GET",route="/api/v1/missions"}`)
}

func TestCommandTypes(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := do(t, srv, http.MethodGet, "/api/v1/command-types", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["adjust_course","collect_sample","ignition"]`, string(body))
}

type fakeLinker struct {
	url string
	err error
}

func (f fakeLinker) PresignedURL(_ context.Context, id string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url + id, nil
}

func TestArchiveLink(t *testing.T) {
	plain, _ := newTestServer(t)
	code, _ := do(t, plain, http.MethodGet, "/api/v1/missions/M1/archive", "")
	assert.Equal(t, http.StatusNotFound, code, "route is absent without an archive")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv, orch := newTestServer(t,
		WithArchiveLinks(fakeLinker{url: "https://s3.local/missions/"}),
		WithArchiveLinkExpiry(10*time.Minute),
		WithClock(clocktesting.NewFakePassiveClock(now)),
	)
	ctx := context.Background()
	_, err := orch.CreateMission(ctx, orchestrator.CreateMissionRequest{ID: "M1", Name: "Test"})
	require.NoError(t, err)
	require.NoError(t, orch.StartMission(ctx, "M1"))

	code, _ = do(t, srv, http.MethodGet, "/api/v1/missions/M1/archive", "")
	assert.Equal(t, http.StatusConflict, code)

	require.NoError(t, orch.AbortMission(ctx, "M1"))
	code, body := do(t, srv, http.MethodGet, "/api/v1/missions/M1/archive", "")
	require.Equal(t, http.StatusOK, code)
	var link ArchiveLink
	require.NoError(t, json.NewDecoder(bytes.NewReader(body)).Decode(&link))
	assert.Equal(t, "https://s3.local/missions/M1", link.URL)
	assert.True(t, link.ExpiresAt.Equal(now.Add(10*time.Minute)), "expires_at = %s", link.ExpiresAt)
}

func TestArchiveLinkMissingObject(t *testing.T) {
	missing := fmt.Errorf("%w: missions/M1.json", model.ErrArchiveNotFound)
	srv, orch := newTestServer(t, WithArchiveLinks(fakeLinker{err: missing}))
	ctx := context.Background()
	_, err := orch.CreateMission(ctx, orchestrator.CreateMissionRequest{ID: "M1", Name: "Test"})
	require.NoError(t, err)
	require.NoError(t, orch.StartMission(ctx, "M1"))
	require.NoError(t, orch.CompleteMission(ctx, "M1"))

	code, body := do(t, srv, http.MethodGet, "/api/v1/missions/M1/archive", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), "archive not found")
	assert.NotContains(t, string(body), "mission not found")
}

func TestRequestBodyLimit(t *testing.T) {
	srv, orch := newTestServer(t, WithMaxBodyBytes(32))

	body := `{"id":"M1","name":"` + strings.Repeat("x", 64) + `"}`
	code, _ := do(t, srv, http.MethodPost, "/api/v1/missions", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, orch.GetAllMissions(context.Background()))
}

func TestServeUntilCanceled(t *testing.T) {
	opts := options.NewHttpOptions()
	opts.ShutdownTimeout = time.Second
	orch := orchestrator.New()
	srv := NewServer(opts, orch)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
