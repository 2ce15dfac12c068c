package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npardo/go-relay/internal/relay"
	"github.com/npardo/go-relay/internal/types"
)

func (s *RelayApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *RelayApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// socketMessage is the trigger endpoint the upstream application server
// posts events to. The payload is classified and fanned out by the relay;
// the acknowledgement names the target room but makes no claim about client
// receipt.
func (s *RelayApp) socketMessage(w http.ResponseWriter, r *http.Request) {
	var msg types.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.log.Println("decode trigger payload:", err)
		s.writeJson(w, http.StatusBadRequest, errorResponse("invalid JSON body"))
		return
	}

	deliveredTo, err := s.relay.HandleTrigger(&msg)
	if err != nil {
		var ve *relay.ValidationError
		if errors.As(err, &ve) {
			s.writeJson(w, http.StatusBadRequest, errorResponse(ve.Error()))
			return
		}

		s.log.Println("handle trigger:", err)
		s.writeJson(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	s.writeJson(w, http.StatusOK, okResponse(deliveredTo))
}

func (s *RelayApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" || len(s.allowedOrigins) == 0 {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := relay.NewClient(conn, s.relay, s.log)

	s.relay.RegisterClient(client)
	go client.Write()
	go client.Read()
}
