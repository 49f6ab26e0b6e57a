package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsctl "github.com/dkeye/noteroom/internal/adapters/ws"
	"github.com/dkeye/noteroom/internal/app"
	"github.com/dkeye/noteroom/internal/auth"
	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
	"github.com/dkeye/noteroom/internal/store"
)

var testSecret = []byte("test-secret")

type testServer struct {
	url   string
	hub   *app.Hub
	store *store.MemStore
	ws    *domain.Workspace
	alice *domain.User
	bob   *domain.User
	eve   *domain.User // not a member
}

// startServer spins up a gin engine with only the ws endpoint, backed
// by a MemStore holding one workspace with alice and bob as members.
func startServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())

	st := store.NewMemStore()
	alice, err := domain.NewUser("Alice", "alice@example.com")
	require.NoError(t, err)
	bob, err := domain.NewUser("Bob", "bob@example.com")
	require.NoError(t, err)
	eve, err := domain.NewUser("Eve", "eve@example.com")
	require.NoError(t, err)
	for _, u := range []*domain.User{alice, bob, eve} {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	ws := domain.NewWorkspace("Team", "", alice.ID)
	ws.Members = append(ws.Members, bob.ID)
	require.NoError(t, st.CreateWorkspace(ctx, ws))

	hub := app.NewHub(core.NewRegistry(), st)
	ctl := wsctl.NewController(hub, testSecret, 32768, 54*time.Second)

	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return &testServer{
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws",
		hub:   hub,
		store: st,
		ws:    ws,
		alice: alice,
		bob:   bob,
		eve:   eve,
	}
}

func (s *testServer) dial(t *testing.T, u *domain.User) *websocket.Conn {
	t.Helper()
	tok, err := auth.GenerateToken(u, testSecret, time.Hour)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(s.url+"?token="+tok, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"event": name, "data": data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev wireEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func readPresence(t *testing.T, conn *websocket.Conn) app.PresencePayload {
	t.Helper()
	ev := readEvent(t, conn)
	require.Equal(t, domain.EvPresence, ev.Event)
	var p app.PresencePayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	return p
}

func joinWorkspace(t *testing.T, conn *websocket.Conn, wsID domain.WorkspaceID) {
	t.Helper()
	sendEvent(t, conn, domain.EvWorkspaceJoin, gin.H{"workspaceId": wsID})
}

func TestHandshakeRejectsBadTokens(t *testing.T) {
	s := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(s.url+"?token=garbage", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJoinBroadcastsPresence(t *testing.T) {
	s := startServer(t)

	a := s.dial(t, s.alice)
	joinWorkspace(t, a, s.ws.ID)
	p := readPresence(t, a)
	require.Len(t, p.Users, 1)
	assert.Equal(t, s.alice.ID, p.Users[0].ID)
	assert.Equal(t, s.ws.ID, p.WorkspaceID)

	b := s.dial(t, s.bob)
	joinWorkspace(t, b, s.ws.ID)

	// Both the joiner and the existing member see the refreshed list.
	for _, conn := range []*websocket.Conn{a, b} {
		p := readPresence(t, conn)
		require.Len(t, p.Users, 2)
	}
}

func TestJoinDeniedForNonMember(t *testing.T) {
	s := startServer(t)

	e := s.dial(t, s.eve)
	joinWorkspace(t, e, s.ws.ID)

	ev := readEvent(t, e)
	require.Equal(t, domain.EvError, ev.Event)
	var p app.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	assert.Equal(t, "Access denied to workspace", p.Message)
}

func TestNoteCreateReachesWholeRoom(t *testing.T) {
	s := startServer(t)

	a := s.dial(t, s.alice)
	b := s.dial(t, s.bob)
	joinWorkspace(t, a, s.ws.ID)
	readPresence(t, a)
	joinWorkspace(t, b, s.ws.ID)
	readPresence(t, a)
	readPresence(t, b)

	sendEvent(t, a, domain.EvNoteCreate, gin.H{
		"workspaceId": s.ws.ID,
		"note":        gin.H{"title": "T", "content": "C"},
	})

	// The creator receives it too, so all of their tabs converge.
	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		require.Equal(t, domain.EvNoteCreated, ev.Event)
		var np app.NotePayload
		require.NoError(t, json.Unmarshal(ev.Data, &np))
		assert.Equal(t, "T", np.Note.Title)
		assert.Equal(t, s.alice.ID, np.Note.LastEditedBy)
	}

	notes, err := s.store.ListNotes(context.Background(), s.ws.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestTypingIsNotEchoedToSender(t *testing.T) {
	s := startServer(t)

	a := s.dial(t, s.alice)
	b := s.dial(t, s.bob)
	joinWorkspace(t, a, s.ws.ID)
	readPresence(t, a)
	joinWorkspace(t, b, s.ws.ID)
	readPresence(t, a)
	readPresence(t, b)

	sendEvent(t, a, domain.EvNoteTyping, gin.H{
		"workspaceId": s.ws.ID,
		"noteId":      "n1",
		"isTyping":    true,
	})

	ev := readEvent(t, b)
	require.Equal(t, domain.EvNoteTyping, ev.Event)
	var tp app.TypingPayload
	require.NoError(t, json.Unmarshal(ev.Data, &tp))
	assert.Equal(t, s.alice.ID, tp.UserID)
	assert.True(t, tp.IsTyping)

	// The sender's next message is the presence answer, proving no
	// typing echo was queued ahead of it.
	sendEvent(t, a, domain.EvPresenceRequest, gin.H{"workspaceId": s.ws.ID})
	p := readPresence(t, a)
	assert.Len(t, p.Users, 2)
}

func TestDisconnectTriggersPresenceRebroadcast(t *testing.T) {
	s := startServer(t)

	a := s.dial(t, s.alice)
	b := s.dial(t, s.bob)
	joinWorkspace(t, a, s.ws.ID)
	readPresence(t, a)
	joinWorkspace(t, b, s.ws.ID)
	readPresence(t, a)
	readPresence(t, b)

	require.NoError(t, b.Close())

	p := readPresence(t, a)
	require.Len(t, p.Users, 1)
	assert.Equal(t, s.alice.ID, p.Users[0].ID)
}
