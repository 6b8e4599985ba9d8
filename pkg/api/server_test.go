// Copyright 2025 Gameday Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/game"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
)

func newTestServer(t *testing.T) (*Server, *events.Bus) {
	t.Helper()

	cat, err := catalog.New([]catalog.Component{
		{Name: "ALB Security Group", Category: catalog.CategorySecurity, RestoreClass: catalog.RestoreClassNetwork},
		{Name: "EC2", Category: catalog.CategoryResilience, RestoreClass: catalog.RestoreClassCompute},
	})
	require.NoError(t, err)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	engine := game.NewEngine(cat,
		platform.NewMockActuator(),
		platform.NewMockObserver(),
		platform.NewMockWorkloadController(),
		ledger.NewMemoryLedger(cat.Names(), bus),
		bus, nil, game.Config{
			ObservationInterval: 10 * time.Millisecond,
			CheckTimeout:        100 * time.Millisecond,
			ActuatorTimeout:     100 * time.Millisecond,
			StopWaitTimeout:     100 * time.Millisecond,
			StopPollInterval:    10 * time.Millisecond,
			RestoreRetries:      1,
		})
	t.Cleanup(engine.Close)

	return NewServer(engine, bus, ServerConfig{}), bus
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gameday_core")
}

func TestStartGame(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	w := doRequest(t, router, http.MethodPost, "/api/v1/game/start",
		`{"category":"security","difficulty":"easy"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp startGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "default", resp.SessionID)
	assert.Equal(t, "running", resp.Phase)
	assert.Equal(t, []string{"ALB Security Group"}, resp.FaultedComponents)
}

func TestStartGameValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	// Missing difficulty.
	w := doRequest(t, router, http.MethodPost, "/api/v1/game/start", `{"category":"security"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Category outside the catalog.
	w = doRequest(t, router, http.MethodPost, "/api/v1/game/start",
		`{"category":"weather","difficulty":"easy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartGameConflictWhileRunning(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	w := doRequest(t, router, http.MethodPost, "/api/v1/game/start",
		`{"category":"security","difficulty":"easy"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/game/start",
		`{"category":"resilience","difficulty":"easy"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPhaseEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/api/v1/game/phase", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"default","phase":"idle"}`, w.Body.String())
}

func TestComponentsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/api/v1/game/components", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, "healthy", resp.Components["EC2"])
}

func TestResetAccepted(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/game/reset", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":true`)
}

func TestEventStreamDeliversEvents(t *testing.T) {
	srv, bus := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/game/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The handler subscribes asynchronously; wait for it before publishing.
	require.Eventually(t, func() bool {
		return bus.SubscriberCount() > 0
	}, time.Second, 10*time.Millisecond)

	bus.Publish(events.NewGameStartedEvent("default", "security"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"type":"game_started"`)
}
