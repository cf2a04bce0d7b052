package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"baton/cmd"
	"baton/config"
	"baton/live"
	"baton/services"
	"baton/types"
	wshub "baton/websocket"
)

// TestHelper runs the full bridge stack over a stubbed Live instance
type TestHelper struct {
	Server    *httptest.Server
	Transport *stubTransport
	Session   services.Session
	Queue     services.ScanQueue
	Hub       wshub.Hub
}

// NewTestHelper creates a bridge backed by a canned two-track session
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	transport := newStubTransport()
	stubSession(transport)

	set := live.NewSet(transport)
	hub := wshub.NewHub()
	go hub.Run()

	session := services.NewSession(set)
	queue := services.NewScanQueue(session, hub)
	queue.Start()

	router := cmd.NewRouter(config.FromEnv(), session, queue, hub)

	return &TestHelper{
		Server:    httptest.NewServer(router),
		Transport: transport,
		Session:   session,
		Queue:     queue,
		Hub:       hub,
	}
}

// Cleanup shuts the test server down
func (h *TestHelper) Cleanup(t *testing.T) {
	h.Server.Close()
}

// stubSession cans the walk of a small session: track 0 "Drums" with a clip
// in slot 0, track 1 "Bass" with a clip in slot 1.
func stubSession(st *stubTransport) {
	st.respond("/live/test", "ok")
	st.respond("/live/song/get/num_tracks", int32(2))
	st.respond("/live/song/get/num_scenes", int32(2))
	st.respond("/live/song/get/tempo", float32(120))

	st.respondTo("/live/track/get/name", args(0), int32(0), "Drums")
	st.respondTo("/live/track/get/is_foldable", args(0), int32(0), false)
	st.respondTo("/live/track/get/is_grouped", args(0), int32(0), false)
	st.respondTo("/live/track/get/name", args(1), int32(1), "Bass")
	st.respondTo("/live/track/get/is_foldable", args(1), int32(1), false)
	st.respondTo("/live/track/get/is_grouped", args(1), int32(1), false)

	st.respondTo("/live/clip_slot/get/has_clip", args(0, 0), int32(0), int32(0), true)
	st.respondTo("/live/clip/get/name", args(0, 0), int32(0), int32(0), "Kick")
	st.respondTo("/live/clip/get/length", args(0, 0), int32(0), int32(0), float32(4))
	st.respondTo("/live/clip_slot/get/has_clip", args(0, 1), int32(0), int32(1), false)
	st.respondTo("/live/clip_slot/get/has_clip", args(1, 0), int32(1), int32(0), false)
	st.respondTo("/live/clip_slot/get/has_clip", args(1, 1), int32(1), int32(1), true)
	st.respondTo("/live/clip/get/name", args(1, 1), int32(1), int32(1), "Groove")
	st.respondTo("/live/clip/get/length", args(1, 1), int32(1), int32(1), float32(8))

	// Full record and notes for the Kick clip, indices echoed first.
	st.respondTo("/live/clip/get/details", args(0, 0),
		int32(0), int32(0),
		"Kick", int32(4), int32(4), int32(4), float32(0), float32(4), float32(0), float32(4))
	st.respondTo("/live/clip/get/notes", args(0, 0),
		int32(0), int32(0),
		int32(36), float32(0), float32(0.25), int32(100), false,
		int32(38), float32(1), float32(0.25), int32(90), false)

	// The clip open in Live's detail view answers without echoes.
	st.respond("/live/view/detail_clip/get/details",
		"Lead", int32(8), int32(3), int32(4), float32(0), float32(8), float32(0), float32(8))
	st.respond("/live/view/detail_clip/get/notes",
		int32(72), float32(0), float32(0.5), int32(110), true)
}

// stubTransport stands in for Live behind the HTTP stack. Canned query
// responses are keyed by exact path+args, with a path-only fallback, and
// every command is recorded for assertions.
type stubTransport struct {
	mu     sync.Mutex
	byCall map[string][]interface{}
	byPath map[string][]interface{}
	cmds   []stubCall
}

type stubCall struct {
	path string
	args []interface{}
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		byCall: make(map[string][]interface{}),
		byPath: make(map[string][]interface{}),
	}
}

var _ live.Transport = (*stubTransport)(nil)

func args(vals ...interface{}) []interface{} { return vals }

func stubKey(path string, args []interface{}) string {
	return fmt.Sprintf("%s %v", path, args)
}

func (st *stubTransport) respond(path string, vals ...interface{}) {
	st.mu.Lock()
	st.byPath[path] = vals
	st.mu.Unlock()
}

func (st *stubTransport) respondTo(path string, callArgs []interface{}, vals ...interface{}) {
	st.mu.Lock()
	st.byCall[stubKey(path, callArgs)] = vals
	st.mu.Unlock()
}

func (st *stubTransport) Query(path string, callArgs ...interface{}) ([]interface{}, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if resp, ok := st.byCall[stubKey(path, callArgs)]; ok {
		return resp, nil
	}
	if resp, ok := st.byPath[path]; ok {
		return resp, nil
	}
	return nil, &live.ConnectionError{Op: "query", Path: path, Err: live.ErrTimeout}
}

func (st *stubTransport) Cmd(path string, callArgs ...interface{}) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cmds = append(st.cmds, stubCall{path: path, args: callArgs})
	return nil
}

// cmdsTo returns the argument lists of every command sent to path.
func (st *stubTransport) cmdsTo(path string) [][]interface{} {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out [][]interface{}
	for _, c := range st.cmds {
		if c.path == path {
			out = append(out, c.args)
		}
	}
	return out
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, "GET", path, nil, target)
}

// PostJSON makes a POST request with a JSON body and unmarshals the response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, "POST", path, requestBody, target)
}

// PutJSON makes a PUT request with a JSON body and unmarshals the response
func (h *TestHelper) PutJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, "PUT", path, requestBody, target)
}

// DeleteJSON makes a DELETE request and unmarshals the JSON response
func (h *TestHelper) DeleteJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, "DELETE", path, nil, target)
}

func (h *TestHelper) doJSON(t *testing.T, method, path string, requestBody interface{}, target interface{}) *http.Response {
	resp := h.MakeRequest(t, method, path, requestBody)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		err = json.Unmarshal(body, target)
		require.NoError(t, err, "response body: %s", body)
	}

	return resp
}

// ScanAndWait triggers a scan over the API and polls until it finishes
func (h *TestHelper) ScanAndWait(t *testing.T) types.ScanJob {
	var queued struct {
		Job types.ScanJob `json:"job"`
	}
	resp := h.PostJSON(t, "/api/set/scan", types.ScanRequest{ClipNames: true, ClipLengths: true}, &queued)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, queued.Job.ID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var status struct {
			Job types.ScanJob `json:"job"`
		}
		resp := h.GetJSON(t, "/api/set/scan/"+queued.Job.ID, &status)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		if status.Job.Status == types.ScanStatusCompleted || status.Job.Status == types.ScanStatusFailed {
			return status.Job
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("Scan %s did not finish within timeout", queued.Job.ID)
	return types.ScanJob{}
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	wsURL := "ws" + h.Server.URL[4:] + path // Replace http:// with ws://

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return conn
}
