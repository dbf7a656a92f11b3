package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/safeguardhq/safeguard/internal/liveevents"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var consoleUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The console is served from the back-office origin, which is not
	// known at build time. The bearer key is the access control here.
	CheckOrigin: func(*http.Request) bool { return true },
}

type consoleMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type consoleDecision struct {
	SessionID string `json:"session_id"`
	Approved  bool   `json:"approved"`
	Note      string `json:"note"`
}

// ApprovalConsoleWS is the manager console channel. On connect the
// console receives the waiting sessions, then live request/resolution
// events; decisions flow back over the same connection.
func (s *Server) ApprovalConsoleWS(c *gin.Context) {
	if s.hub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	// The pending snapshot is authoritative for waiting sessions, so
	// the event backlog is not replayed here.
	subscription, _, err := s.hub.Subscribe(liveevents.TopicApprovals)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	conn, err := consoleUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		subscription.Close()
		return
	}

	actor := s.actorID(c)
	log := s.log.Named("approval.console").With(zap.String("actor", actor))

	outbound := make(chan consoleMessage, 16)
	outbound <- consoleMessage{Type: "pending_snapshot", Data: s.approvalSvc.Pending(c.Request.Context())}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.consoleWriteLoop(conn, outbound, subscription)
	}()

	s.consoleReadLoop(c, conn, outbound, log)

	subscription.Close()
	_ = conn.Close()
	<-done
}

func (s *Server) consoleWriteLoop(conn *websocket.Conn, outbound <-chan consoleMessage, subscription *liveevents.Subscription) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(consoleMessage{Type: event.Type, Data: event.Data}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) consoleReadLoop(c *gin.Context, conn *websocket.Conn, outbound chan<- consoleMessage, log *zap.Logger) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var decision consoleDecision
		if err := conn.ReadJSON(&decision); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("console connection dropped", zap.Error(err))
			}
			return
		}

		sessionID := strings.TrimSpace(decision.SessionID)
		if sessionID == "" {
			s.enqueueConsole(outbound, consoleMessage{Type: "error", Data: gin.H{"code": "invalid_session_id"}})
			continue
		}

		outcome, err := s.decideSession(c.Request.Context(), sessionID, decision.Approved, s.actorID(c), decision.Note)
		if err != nil {
			s.enqueueConsole(outbound, consoleMessage{Type: "error", Data: gin.H{
				"session_id": sessionID,
				"code":       err.Error(),
			}})
			continue
		}

		s.enqueueConsole(outbound, consoleMessage{Type: "decision_ack", Data: outcome})
	}
}

// enqueueConsole drops rather than blocks when the console is not
// draining its own acks.
func (s *Server) enqueueConsole(outbound chan<- consoleMessage, msg consoleMessage) {
	select {
	case outbound <- msg:
	default:
	}
}
