package server

import (
	"encoding/json"
	"net/http"
)

// defaultUserID keys refusal state for callers that don't identify
// themselves. A single-household deployment rarely does.
const defaultUserID = "default"

// chatRequest is the POST /api/chat body. Message is a pointer so a
// missing field and a present-but-wrong-type field both fail validation
// instead of silently becoming "".
type chatRequest struct {
	UserID  string  `json:"userId"`
	Message *string `json:"message"`
}

type chatError struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "invalid JSON body"})
		return
	}
	if req.Message == nil || *req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "message is required"})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	resp := s.chat.Handle(r.Context(), userID, *req.Message)
	writeJSON(w, http.StatusOK, resp)
}
