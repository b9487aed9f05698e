package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Frame types on the chat WebSocket.
const (
	frameConnected = "connected"
	frameToken     = "token"
	frameComplete  = "complete"
	frameError     = "error"
)

// wsFrame is one JSON message on the socket, both directions. Inbound frames
// carry Message/SessionID; outbound frames carry Type plus a payload field.
type wsFrame struct {
	Type      string `json:"type,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWebSocket streams chat turns: each inbound message produces a run of
// token frames followed by a complete frame carrying the full reply. The full
// reply equals the concatenated token contents.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("ws.accept_failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	if err := wsjson.Write(ctx, conn, wsFrame{Type: frameConnected}); err != nil {
		return
	}

	for {
		var in wsFrame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			// Normal close or dropped peer; either way the session is done.
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		if in.Message == "" {
			_ = wsjson.Write(ctx, conn, wsFrame{Type: frameError, Error: "message is required"})
			continue
		}
		sessionID := in.SessionID
		if sessionID == "" {
			sessionID = DefaultSessionID
		}
		s.streamTurn(ctx, conn, sessionID, in.Message)
	}
}

func (s *Server) streamTurn(ctx context.Context, conn *websocket.Conn, sessionID, message string) {
	reply, err := s.orch.StreamTurn(ctx, sessionID, message, func(token string) {
		_ = wsjson.Write(ctx, conn, wsFrame{Type: frameToken, Content: token})
	})
	if err != nil {
		s.logger.Error("ws.turn_failed", "session_id", sessionID, "error", err)
		_ = wsjson.Write(ctx, conn, wsFrame{Type: frameError, Error: "the assistant is unavailable right now"})
		return
	}
	_ = wsjson.Write(ctx, conn, wsFrame{Type: frameComplete, Content: reply, SessionID: sessionID})
}
