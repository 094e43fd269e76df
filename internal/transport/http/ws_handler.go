package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-platform-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// leaderboardWS upgrades the request and streams leaderboard snapshots for
// the quiz: the current ranking immediately, then one message per accepted
// attempt. The connection closes when the client goes away or the quiz is
// deleted.
func (h *Handler) leaderboardWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")

	updates, cancel, err := h.leaderboards.Subscribe(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			// Inbound frames are not part of the feed protocol; reading
			// drains pings and surfaces the close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
