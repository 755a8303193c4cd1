package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleChatWS serves the same pipeline over a WebSocket: each text frame
// is a chat request, each reply a chat response. Frames without a userId
// fall back to a per-connection identity so lockout state sticks for the
// life of the connection.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	connUserID := "ws-" + uuid.NewString()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.writeFrame(conn, chatError{Error: "invalid message format"})
			continue
		}
		if req.Message == nil || *req.Message == "" {
			s.writeFrame(conn, chatError{Error: "message is required"})
			continue
		}

		userID := req.UserID
		if userID == "" {
			userID = connUserID
		}

		resp := s.chat.Handle(r.Context(), userID, *req.Message)
		s.writeFrame(conn, resp)
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
