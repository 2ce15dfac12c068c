package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npardo/go-relay/internal/config"
	"github.com/npardo/go-relay/internal/relay"
)

// RelayApp is the HTTP surface of the relay: the trigger endpoint for the
// upstream application server and the websocket upgrade path for clients.
type RelayApp struct {
	log            *log.Logger
	mux            *http.Server
	relay          *relay.Relay
	signingKey     []byte
	allowedOrigins []string
}

func NewRelayApp(mux *http.ServeMux, logger *log.Logger, rl *relay.Relay, cfg *config.Config) *RelayApp {
	s := &RelayApp{
		log:            logger,
		relay:          rl,
		signingKey:     []byte(cfg.SigningSecret),
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /socket-message", s.authMiddleware(s.socketMessage))
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /healthz", s.healthCheck)

	// the upstream server and browser clients may live on other origins
	corsOrigins := cfg.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *RelayApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *RelayApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
