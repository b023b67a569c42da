package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"timeline-editor/preset"
)

type dragMsg struct {
	Type    string         `json:"type"`
	Item    map[string]any `json:"item,omitempty"`
	Delta   map[string]any `json:"delta,omitempty"`
	Over    map[string]any `json:"over,omitempty"`
	Preview *struct {
		State      string `json:"state"`
		GhostIndex *int   `json:"ghostIndex"`
		SlotIndex  *int   `json:"slotIndex"`
	} `json:"preview,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
	Preset  *preset.Preset `json:"preset,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func dialDrag(t *testing.T, srv *httptest.Server, presetID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/presets/" + presetID + "/drag"
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func mustDial(t *testing.T, srv *httptest.Server, presetID string) *websocket.Conn {
	t.Helper()
	conn, _, err := dialDrag(t, srv, presetID)
	if err != nil {
		t.Fatalf("WS dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg dragMsg) dragMsg {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply dragMsg
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return reply
}

func TestDragNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := dialDrag(t, srv, "nonexistent")
	if err == nil {
		t.Fatal("expected error connecting to nonexistent preset")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}

func TestDragInsertFromRoster(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	conn := mustDial(t, srv, p.ID)

	reply := roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Specials[0].ID, "source": "character"}})
	if reply.Type != "preview" || reply.Preview.State != "armed" {
		t.Fatalf("expected armed preview, got %+v", reply)
	}

	reply = roundTrip(t, conn, dragMsg{Type: "dragMove", Delta: map[string]any{"x": 15, "y": 20}})
	if reply.Preview.State != "dragging" {
		t.Fatalf("expected dragging, got %s", reply.Preview.State)
	}

	drop := map[string]any{"kind": string(preset.HoverDropArea), "id": "timeline-drop-area"}
	reply = roundTrip(t, conn, dragMsg{Type: "dragOver", Over: drop})
	if reply.Preview.State != "previewing" || reply.Preview.GhostIndex == nil || *reply.Preview.GhostIndex != 0 {
		t.Fatalf("expected ghost at 0, got %+v", reply.Preview)
	}

	reply = roundTrip(t, conn, dragMsg{Type: "dragEnd", Over: drop})
	if reply.Type != "committed" || reply.Outcome != "inserted" {
		t.Fatalf("expected committed insert, got %+v", reply)
	}
	if len(reply.Preset.Timeline) != 1 || reply.Preset.Timeline[0].Time != 5 {
		t.Fatalf("unexpected committed timeline %+v", reply.Preset.Timeline)
	}
	if got, _ := pm.Get(p.ID); len(got.Timeline) != 1 {
		t.Fatal("commit was not stored")
	}
}

func TestDragShortMoveCancels(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	conn := mustDial(t, srv, p.ID)

	roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "character"}})
	roundTrip(t, conn, dragMsg{Type: "dragMove", Delta: map[string]any{"x": 9, "y": 12}})
	drop := map[string]any{"kind": string(preset.HoverDropArea)}
	reply := roundTrip(t, conn, dragMsg{Type: "dragOver", Over: drop})
	if reply.Preview.GhostIndex != nil {
		t.Fatal("no ghost expected under the activation distance")
	}
	reply = roundTrip(t, conn, dragMsg{Type: "dragEnd", Over: drop})
	if reply.Type != "cancelled" {
		t.Fatalf("expected cancelled, got %+v", reply)
	}
	if got, _ := pm.Get(p.ID); len(got.Timeline) != 0 {
		t.Fatal("cancelled drag changed the preset")
	}
}

func TestDragSlotReorder(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	conn := mustDial(t, srv, p.ID)

	roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "slot", "roster": "strikers"}})
	target := map[string]any{"kind": string(preset.HoverSlot), "id": "strikers-2"}
	reply := roundTrip(t, conn, dragMsg{Type: "dragOver", Over: target})
	if reply.Preview.SlotIndex == nil || *reply.Preview.SlotIndex != 2 {
		t.Fatalf("expected slot 2 preview, got %+v", reply.Preview)
	}
	reply = roundTrip(t, conn, dragMsg{Type: "dragEnd", Over: target})
	if reply.Outcome != "rosterReordered" || reply.Preset.Strikers[2].Name != "Aru" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestDragSingleGesture(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	start := dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "character"}}

	first := mustDial(t, srv, p.ID)
	roundTrip(t, first, start)

	second := mustDial(t, srv, p.ID)
	reply := roundTrip(t, second, start)
	if reply.Type != "error" || reply.Error != "drag in progress" {
		t.Fatalf("expected drag in progress, got %+v", reply)
	}
	if reply := roundTrip(t, first, start); reply.Type != "error" {
		t.Fatalf("a socket must not start a second gesture, got %+v", reply)
	}

	// Closing the first socket cancels its gesture.
	first.Close()
	deadline := time.Now().Add(2 * time.Second)
	for {
		reply = roundTrip(t, second, start)
		if reply.Type == "preview" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("gesture not released after close, last reply %+v", reply)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if reply := roundTrip(t, second, dragMsg{Type: "cancel"}); reply.Type != "cancelled" {
		t.Fatalf("expected cancelled, got %+v", reply)
	}
}

func TestDragErrors(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	conn := mustDial(t, srv, p.ID)

	for _, msg := range []dragMsg{
		{Type: "dragMove", Delta: map[string]any{"x": 1}},
		{Type: "dragEnd"},
		{Type: "dragStart"},
		{Type: "dragStart", Item: map[string]any{"id": "ghost", "source": "timeline"}},
		{Type: "bogus"},
	} {
		if reply := roundTrip(t, conn, msg); reply.Type != "error" {
			t.Errorf("%s: expected error, got %+v", msg.Type, reply)
		}
	}
}

func TestDragDropOnSlotAfterPreviewCancels(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)
	conn := mustDial(t, srv, p.ID)

	roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "character"}})
	roundTrip(t, conn, dragMsg{Type: "dragMove", Delta: map[string]any{"x": 30, "y": 0}})
	reply := roundTrip(t, conn, dragMsg{Type: "dragOver", Over: map[string]any{"kind": string(preset.HoverDropArea)}})
	if reply.Preview.GhostIndex == nil {
		t.Fatalf("expected a ghost over the drop area, got %+v", reply.Preview)
	}

	reply = roundTrip(t, conn, dragMsg{Type: "dragEnd", Over: map[string]any{"kind": string(preset.HoverSlot), "id": "strikers-3"}})
	if reply.Type != "cancelled" {
		t.Fatalf("drop on a roster slot must cancel, got %+v", reply)
	}
	if got, _ := pm.Get(p.ID); len(got.Timeline) != 0 {
		t.Fatal("cancelled drop changed the preset")
	}
}

type dragStatusBody struct {
	State   string `json:"state"`
	Preview *struct {
		SessionID string `json:"sessionId"`
		State     string `json:"state"`
	} `json:"preview"`
}

func TestDragStatusAndCancel(t *testing.T) {
	srv, pm := newTestServer(t)
	p := seed(t, pm)

	resp := do(t, http.MethodGet, srv.URL+"/api/drag", "")
	expectStatus(t, resp, http.StatusOK)
	if st := decode[dragStatusBody](t, resp); st.State != "idle" || st.Preview != nil {
		t.Fatalf("expected idle, got %+v", st)
	}

	conn := mustDial(t, srv, p.ID)
	roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "character"}})
	roundTrip(t, conn, dragMsg{Type: "dragMove", Delta: map[string]any{"x": 30}})

	resp = do(t, http.MethodGet, srv.URL+"/api/drag", "")
	st := decode[dragStatusBody](t, resp)
	if st.State != "dragging" || st.Preview == nil || st.Preview.SessionID == "" {
		t.Fatalf("expected a dragging gesture, got %+v", st)
	}
	id := st.Preview.SessionID

	resp = do(t, http.MethodGet, srv.URL+"/api/drag/"+id, "")
	expectStatus(t, resp, http.StatusOK)
	resp = do(t, http.MethodGet, srv.URL+"/api/drag/other", "")
	expectStatus(t, resp, http.StatusNotFound)

	resp = do(t, http.MethodDelete, srv.URL+"/api/drag/"+id, "")
	expectStatus(t, resp, http.StatusNoContent)
	resp = do(t, http.MethodDelete, srv.URL+"/api/drag/"+id, "")
	expectStatus(t, resp, http.StatusNotFound)
	resp = do(t, http.MethodGet, srv.URL+"/api/drag", "")
	if st := decode[dragStatusBody](t, resp); st.State != "idle" {
		t.Fatalf("expected idle after cancel, got %+v", st)
	}

	// The socket learns of the cancel on its next event and may start again.
	if reply := roundTrip(t, conn, dragMsg{Type: "dragMove", Delta: map[string]any{"x": 40}}); reply.Type != "error" || reply.Error == "" {
		t.Fatalf("expected an error for a cancelled gesture, got %+v", reply)
	}
	if reply := roundTrip(t, conn, dragMsg{Type: "dragStart", Item: map[string]any{"id": p.Strikers[0].ID, "source": "character"}}); reply.Type != "preview" {
		t.Fatalf("expected a fresh gesture, got %+v", reply)
	}
}
