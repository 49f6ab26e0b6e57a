// Package ws is the transport adapter: it authenticates the handshake,
// upgrades to WebSocket and pumps frames between the connection and
// the hub. One read loop per connection processes that connection's
// events strictly in arrival order.
package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/app"
	"github.com/dkeye/noteroom/internal/auth"
	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Controller struct {
	hub        *app.Hub
	secret     []byte
	readLimit  int64
	pingPeriod time.Duration

	handlers map[string]handlerFunc
}

func NewController(hub *app.Hub, secret []byte, readLimit int64, pingPeriod time.Duration) *Controller {
	ctl := &Controller{
		hub:        hub,
		secret:     secret,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
	ctl.handlers = ctl.dispatchTable()
	return ctl
}

// wsConn owns the gorilla connection plus a bounded send queue. A full
// queue fails TrySend instead of blocking a broadcast on one slow
// client.
type wsConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame
	once sync.Once
}

func (c *wsConn) ID() core.ConnID { return c.id }

func (c *wsConn) TrySend(f core.Frame) error {
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

// HandleWS verifies the bearer token before anything else; no room
// join, presence registration or event handling is reachable until it
// succeeds. Failures close the handshake with the reason and never
// establish the connection.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	user, err := auth.VerifyToken(bearerToken(c), ctl.secret)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("handshake rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("ws upgrade failed")
		return
	}

	conn := &wsConn{
		id:   core.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, 256),
	}
	sess := core.NewSession(conn, user)
	ctl.hub.Connect(sess)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sess, conn)
}

// bearerToken accepts the token as a query parameter or an
// Authorization header; browser clients cannot set headers on a ws
// dial, so the query form is the common path.
func bearerToken(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer func() {
		ticker.Stop()
		// Close only the socket here, never the send queue: the
		// connection may still be registered, and a broadcast racing
		// this exit must land in the queue, not on a closed channel.
		// Closing the socket wakes readPump, whose defer deregisters
		// the connection before Close shuts the queue.
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump exits on any read error, which is the only disconnect
// detection; cleanup then runs exactly once.
func (ctl *Controller) readPump(ctx context.Context, sess *core.Session, c *wsConn) {
	defer func() {
		ctl.hub.Disconnect(c.id)
		c.Close()
	}()

	pongWait := ctl.pingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Str("conn", string(c.id)).Msg("read loop closing")
				return
			}
			ctl.dispatch(ctx, sess, data)
		}
	}
}

func (ctl *Controller) sendError(sess *core.Session, err error) {
	f, encErr := app.Encode(domain.EvError, app.ErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	_ = sess.Send(f)
}
