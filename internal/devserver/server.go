// Package devserver is an in-memory stand-in for the CRM backend. It
// serves the REST API the terminal client uses and pushes NewBid events
// over a websocket, so the client can be run and tested without the real
// server.
package devserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful shutdown of ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	// Token, when set, is the bearer token every REST request must carry.
	Token string

	Logger zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the development backend.
type Server struct {
	opts     Options
	data     *store
	hub      *Hub
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server seeded with demo data.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts: opts,
		data: newStore(opts.Now),
		hub:  NewHub(opts.Logger.With().Str("component", "hub").Logger()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API and the push socket.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the push hub. Run must be called for events to flow.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.opts.Logger.Info().Str("addr", addr).Msg("dev server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.opts.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleSocket)
		r.Get("/ws", s.handleSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Get("/auth/me", s.handleMe)
			r.Get("/users", s.handleUsers)
			r.Get("/roles", s.handleRoles)

			r.Route("/bids", func(r chi.Router) {
				r.Get("/", s.handleListBids)
				r.Post("/", s.handleCreateBid)
				r.Post("/batch", s.handleCreateBids)
				r.Get("/{id}", s.handleGetBid)
				r.Put("/{id}", s.handleUpdateBid)
				r.Delete("/{id}", s.handleDeleteBid)
			})
			r.Get("/bid-types", s.handleBidTypes)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", s.handleListClients)
				r.Post("/", s.handleCreateClient)
				r.Get("/{id}", s.handleGetClient)
				r.Put("/{id}", s.handleUpdateClient)
				r.Delete("/{id}", s.handleDeleteClient)
			})

			r.Route("/client-objects", func(r chi.Router) {
				r.Get("/", s.handleListObjects)
				r.Post("/", s.handleCreateObject)
				r.Put("/{id}", s.handleUpdateObject)
				r.Delete("/{id}", s.handleDeleteObject)
			})

			r.Route("/equipment", func(r chi.Router) {
				r.Get("/", s.handleListEquipment)
				r.Post("/", s.handleCreateEquipment)
				r.Put("/{id}", s.handleUpdateEquipment)
				r.Delete("/{id}", s.handleDeleteEquipment)
			})

			r.Get("/contracts", s.handleListContracts)
			r.Get("/contracts/{id}", s.handleGetContract)

			r.Get("/notifications", s.handleListNotifications)
			r.Post("/notifications", s.handleCreateNotification)
			r.Put("/notifications/{id}/read", s.handleMarkRead)
		})
	})
	return r
}

// requireToken rejects REST requests without the configured bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Token)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// handleSocket upgrades push clients. Plain GETs get a health response.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	s.hub.Attach(conn)
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
