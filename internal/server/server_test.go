package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/fsru-tools/fleet-timeline/internal/dispatcher"
	"github.com/fsru-tools/fleet-timeline/internal/timeline"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
	"github.com/fsru-tools/fleet-timeline/pkg/streaming"
)

type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Debug(msg string, kv ...any) { a.l.Debug(msg, kv...) }
func (a slogAdapter) Info(msg string, kv ...any)  { a.l.Info(msg, kv...) }
func (a slogAdapter) Error(msg string, kv ...any) { a.l.Error(msg, kv...) }

func writeSnapshot(t *testing.T, dir, stamp, name string, lon float64) {
	t.Helper()
	body := fmt.Sprintf(`{"data":{"vessels":[{"name":%q,"lat":0,"lon":%g}]}}`, name, lon)
	path := filepath.Join(dir, timeline.DefaultPrefix+stamp+timeline.DefaultSuffix)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}
}

// newTestServer builds a server over a three-snapshot fleet where Alpha
// drifts ~10.4 miles between the first two snapshots and ~2.1 between the
// last two.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	writeSnapshot(t, dir, "20250408T130000Z", "Alpha", 0)
	writeSnapshot(t, dir, "20250408T140000Z", "Alpha", 0.15)
	writeSnapshot(t, dir, "20250408T150000Z", "Alpha", 0.18)

	logger := slog.New(slog.DiscardHandler)
	engine := timeline.New(timeline.Config{Dir: dir}, logger)

	d, err := dispatcher.New(slogAdapter{logger})
	if err != nil {
		t.Fatalf("creating dispatcher: %v", err)
	}

	srv := New(Config{PlaybackInterval: 20 * time.Millisecond}, engine, d, logger, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) (id string, frameCount int) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		ID         string `json:"id"`
		FrameCount int    `json:"frameCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return body.ID, body.FrameCount
}

func getFrame(t *testing.T, ts *httptest.Server, id string, index int) core.Frame {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s/frame?index=%d", ts.URL, id, index))
	if err != nil {
		t.Fatalf("fetching frame %d: %v", index, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frame %d: expected 200, got %d", index, resp.StatusCode)
	}
	var frame core.Frame
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	return frame
}

func TestServer_Healthcheck(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("healthcheck: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	id, frameCount := createSession(t, ts)
	if frameCount != 3 {
		t.Errorf("expected 3 frames, got %d", frameCount)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}

	// Deleted session is gone.
	resp, err = http.Get(ts.URL + "/api/sessions/" + id + "/status")
	if err != nil {
		t.Fatalf("status after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_FrameNavigation(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)

	frame := getFrame(t, ts, id, 0)
	if len(frame.ChangedNames) != 0 {
		t.Errorf("first frame flagged %v", frame.ChangedNames)
	}

	frame = getFrame(t, ts, id, 1)
	if len(frame.ChangedNames) != 1 || frame.ChangedNames[0] != "Alpha" {
		t.Errorf("expected Alpha flagged at frame 1, got %v", frame.ChangedNames)
	}

	frame = getFrame(t, ts, id, 2)
	if len(frame.ChangedNames) != 0 {
		t.Errorf("expected no flags at frame 2, got %v", frame.ChangedNames)
	}
}

func TestServer_FrameBadIndex(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/frame?index=99")
	if err != nil {
		t.Fatalf("fetching frame: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/sessions/" + id + "/frame?index=nope")
	if err != nil {
		t.Fatalf("fetching frame: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric index, got %d", resp.StatusCode)
	}
}

func TestServer_FrameGeoJSON(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/frame?index=0&format=geojson")
	if err != nil {
		t.Fatalf("fetching geojson frame: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected geo+json content type, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"FeatureCollection"`)) {
		t.Errorf("expected a FeatureCollection, got %s", body)
	}
}

func TestServer_Timeline(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/timeline")
	if err != nil {
		t.Fatalf("fetching timeline: %v", err)
	}
	defer resp.Body.Close()

	var payload streaming.TimelinePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding timeline: %v", err)
	}
	if len(payload.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(payload.Entries))
	}
	for i := 1; i < len(payload.Entries); i++ {
		if payload.Entries[i].Timestamp.Before(payload.Entries[i-1].Timestamp) {
			t.Errorf("timeline out of order at %d", i)
		}
	}
}

func TestServer_Status(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)
	getFrame(t, ts, id, 0)
	getFrame(t, ts, id, 1)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/status")
	if err != nil {
		t.Fatalf("fetching status: %v", err)
	}
	defer resp.Body.Close()

	var status streaming.StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.CurrentIndex != 1 {
		t.Errorf("expected current index 1, got %d", status.CurrentIndex)
	}
	if status.FrameCount != 3 {
		t.Errorf("expected 3 frames, got %d", status.FrameCount)
	}
	if status.Renders != 2 {
		t.Errorf("expected 2 renders, got %d", status.Renders)
	}
}

func TestServer_EmptyFleetDirectory(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	engine := timeline.New(timeline.Config{Dir: t.TempDir()}, logger)
	d, err := dispatcher.New(slogAdapter{logger})
	if err != nil {
		t.Fatalf("creating dispatcher: %v", err)
	}
	srv := New(Config{}, engine, d, logger, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for empty fleet directory, got %d", resp.StatusCode)
	}
}

func dialWS(t *testing.T, ts *httptest.Server, sessionID string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + sessionID
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *ws.Conn) streaming.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env streaming.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("reading envelope: %v", err)
	}
	return env
}

func TestServer_WebSocketSelectFrame(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)
	conn := dialWS(t, ts, id)

	if err := conn.WriteJSON(streaming.Envelope{
		Type:    streaming.TypeSelectFrame,
		Payload: json.RawMessage(`{"index":0}`),
	}); err != nil {
		t.Fatalf("sending select_frame: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != streaming.TypeFrame {
		t.Fatalf("expected frame envelope, got %s", env.Type)
	}

	var payload streaming.FramePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decoding frame payload: %v", err)
	}
	if payload.Frame.Index != 0 || len(payload.Frame.Rows) != 1 {
		t.Errorf("unexpected frame: %+v", payload.Frame)
	}
}

func TestServer_WebSocketPlayback(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)
	conn := dialWS(t, ts, id)

	if err := conn.WriteJSON(streaming.Envelope{Type: streaming.TypePlay}); err != nil {
		t.Fatalf("sending play: %v", err)
	}

	// Playback advances through all frames then reports a final paused
	// status. Collect until that status arrives.
	var frames []int
	for {
		env := readEnvelope(t, conn)
		switch env.Type {
		case streaming.TypeFrame:
			var payload streaming.FramePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				t.Fatalf("decoding frame payload: %v", err)
			}
			frames = append(frames, payload.Frame.Index)
		case streaming.TypeStatus:
			var status streaming.StatusPayload
			if err := json.Unmarshal(env.Payload, &status); err != nil {
				t.Fatalf("decoding status payload: %v", err)
			}
			if !status.Playing {
				if len(frames) != 3 {
					t.Errorf("expected frames 0..2, got %v", frames)
				}
				return
			}
		case streaming.TypeError:
			t.Fatalf("unexpected error envelope: %s", env.Payload)
		}
	}
}

func TestServer_WebSocketUnknownType(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)
	conn := dialWS(t, ts, id)

	if err := conn.WriteJSON(streaming.Envelope{Type: "warp_drive"}); err != nil {
		t.Fatalf("sending unknown type: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != streaming.TypeError {
		t.Errorf("expected error envelope, got %s", env.Type)
	}
}

func TestServer_WebSocketRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t)
	id, _ := createSession(t, ts)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + id
	header := http.Header{"Origin": []string{"http://elsewhere.example"}}
	_, resp, err := ws.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 handshake response, got %+v", resp)
	}
}

func TestServer_WebSocketUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=nope"
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 handshake response, got %+v", resp)
	}
}
