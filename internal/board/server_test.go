package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/stageboard/internal/models"
	"github.com/fentz26/stageboard/internal/source"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	srv := NewServer(svc, "127.0.0.1:0", testLogger(), prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func getSnapshot(t *testing.T, ts *httptest.Server) models.Snapshot {
	t.Helper()
	resp, err := http.Get(ts.URL + "/schedule")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap models.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScheduleEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	snap := getSnapshot(t, ts)
	require.Len(t, snap.Acts, 2)
	assert.Equal(t, "Sunrise Collective", snap.Acts[0].Act.Name)
	assert.Equal(t, "Main Stage", snap.Headline.StageName)

	resp, err := http.Post(ts.URL+"/schedule", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestActCommandEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"at":"2026-06-20T11:32:00Z"}`)
	resp, err := http.Post(ts.URL+"/acts/Sunrise%20Collective/start", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var act models.Act
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&act))
	require.NotNil(t, act.ActualStart)
	assert.Equal(t, time.Date(2026, 6, 20, 11, 32, 0, 0, time.UTC), act.ActualStart.UTC())

	snap := getSnapshot(t, ts)
	assert.Equal(t, models.StateRunning, snap.Acts[0].State)
}

func TestActCommandDefaultsToNow(t *testing.T) {
	ts, svc := newTestServer(t)

	// No body: the command is stamped with the pinned clock time.
	resp, err := http.Post(ts.URL+"/acts/Sunrise%20Collective/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var act models.Act
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&act))
	require.NotNil(t, act.ActualStart)
	assert.Equal(t, svc.clk.Now(), act.ActualStart.UTC())
}

func TestActCommandPercentEncodedName(t *testing.T) {
	ts, svc := newTestServer(t)

	static, ok := svc.src.(*source.Static)
	require.True(t, ok)
	static.Update([]models.Act{
		{Name: "100% Vinyl", ScheduledStart: at(12, 0), ScheduledEnd: at(13, 0)},
	})
	require.NoError(t, svc.Refresh(context.Background()))

	// A literal '%' in the act name arrives as %25 and must decode once.
	resp, err := http.Post(ts.URL+"/acts/100%25%20Vinyl/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var act models.Act
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&act))
	assert.Equal(t, "100% Vinyl", act.Name)
	assert.NotNil(t, act.ActualStart)
}

func TestActCommandErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown act", "/acts/Nobody/start", "", http.StatusNotFound},
		{"unknown command", "/acts/Sunrise%20Collective/pause", "", http.StatusNotFound},
		{"missing command", "/acts/Sunrise%20Collective", "", http.StatusBadRequest},
		{"bad json", "/acts/Sunrise%20Collective/start", "{", http.StatusBadRequest},
		{"end before start", "/acts/Desert%20Echoes/end", `{"at":"2026-06-20T12:00:00Z"}`, http.StatusBadRequest},
	}

	// Give Desert Echoes a start so the end-before-start case trips.
	resp, err := http.Post(ts.URL+"/acts/Desert%20Echoes/start",
		"application/json", strings.NewReader(`{"at":"2026-06-20T12:05:00Z"}`))
	require.NoError(t, err)
	resp.Body.Close()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+tc.path, "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestResetEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/acts/Sunrise%20Collective/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := getSnapshot(t, ts)
	for _, v := range snap.Acts {
		assert.Equal(t, models.StateUpcoming, v.State)
	}
}

func TestClockOverrideEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)

	body := strings.NewReader(`{"time":"2026-06-20T15:00:00Z"}`)
	resp, err := http.Post(ts.URL+"/clock/override", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, time.Date(2026, 6, 20, 15, 0, 0, 0, time.UTC), svc.clk.Now())

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/clock/override", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, overridden := svc.clk.Override()
	assert.False(t, overridden)
}

func TestBrightnessEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	svc.SetBrightness(7200)

	resp, err := http.Get(ts.URL + "/brightness")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 7200, out["value"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func dialWS(t *testing.T, ts *httptest.Server, mode string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if mode != "" {
		url += "?mode=" + mode
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env wsEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWSJoinDeliversSnapshot(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts, "")
	env := readEnvelope(t, conn)
	require.Equal(t, "snapshot", env.Type)
	require.NotNil(t, env.Snapshot)
	assert.Len(t, env.Snapshot.Acts, 2)
}

func TestWSEditSessionCommands(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts, "edit")
	readEnvelope(t, conn) // join snapshot

	at := time.Date(2026, 6, 20, 11, 31, 0, 0, time.UTC)
	require.NoError(t, conn.WriteJSON(wsCommand{Op: "record_start", Act: "Sunrise Collective", At: &at}))

	env := readEnvelope(t, conn)
	require.Equal(t, "snapshot", env.Type)
	assert.Equal(t, models.StateRunning, env.Snapshot.Acts[0].State)
}

func TestWSViewSessionRejectsCommands(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts, "")
	readEnvelope(t, conn)

	require.NoError(t, conn.WriteJSON(wsCommand{Op: "record_start", Act: "Sunrise Collective"}))

	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)
	assert.Contains(t, env.Error, ErrViewOnly.Error())
}

func TestWSCommandErrorDoesNotCloseSession(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts, "edit")
	readEnvelope(t, conn)

	require.NoError(t, conn.WriteJSON(wsCommand{Op: "record_start", Act: "Nobody"}))
	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)

	// The session is still live and still broadcasts.
	require.NoError(t, conn.WriteJSON(wsCommand{Op: "record_start", Act: "Sunrise Collective"}))
	env = readEnvelope(t, conn)
	assert.Equal(t, "snapshot", env.Type)
}

func TestWSFanOutAcrossSessions(t *testing.T) {
	ts, _ := newTestServer(t)

	editor := dialWS(t, ts, "edit")
	viewer := dialWS(t, ts, "")
	readEnvelope(t, editor)
	readEnvelope(t, viewer)

	require.NoError(t, editor.WriteJSON(wsCommand{Op: "record_start", Act: "Sunrise Collective"}))

	for i, conn := range []*websocket.Conn{editor, viewer} {
		env := readEnvelope(t, conn)
		require.Equal(t, "snapshot", env.Type, fmt.Sprintf("session %d", i))
		assert.Equal(t, models.StateRunning, env.Snapshot.Acts[0].State)
	}
}
