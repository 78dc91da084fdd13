package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Events is the part of the event hub the API reads from.
type Events interface {
	Snapshot() []domain.Event
	Latest(account string) (domain.Event, bool)
	Subscribe() (<-chan domain.Event, func())
	Dropped() int
}

type accountView struct {
	Account string                `json:"account"`
	At      time.Time             `json:"at"`
	Record  *domain.SessionRecord `json:"record"`
	Proxies []domain.ProxyStat    `json:"proxies,omitempty"`
}

// Server is the local read-only status API.
type Server struct {
	events   Events
	log      logrus.FieldLogger
	started  time.Time
	router   *gin.Engine
	upgrader websocket.Upgrader
}

func NewServer(events Events, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		events:  events,
		log:     log,
		started: time.Now(),
		router:  gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameHostOrigin,
		},
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api")
	{
		api.GET("/accounts", s.listAccounts)
		api.GET("/accounts/:label", s.getAccount)
		api.GET("/events", s.streamEvents)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("status api request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.started).Truncate(time.Second).String(),
		"dropped_events": s.events.Dropped(),
	})
}

func (s *Server) listAccounts(c *gin.Context) {
	snapshot := s.events.Snapshot()
	views := make([]accountView, 0, len(snapshot))
	for _, event := range snapshot {
		view := toView(event)
		view.Proxies = nil
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"accounts": views})
}

// getAccount accepts "Account 2", "account-2" or "2".
func (s *Server) getAccount(c *gin.Context) {
	label := normalizeLabel(c.Param("label"))
	event, ok := s.events.Latest(label)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s not found", label)})
		return
	}
	c.JSON(http.StatusOK, toView(event))
}

// streamEvents upgrades to a websocket, sends the current snapshot and then
// every published event as JSON.
func (s *Server) streamEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, event := range s.events.Snapshot() {
		if err := writeJSON(conn, event); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if err := writeJSON(conn, event); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Serve listens on addr until ctx ends, then shuts the server down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", listener.Addr().String()).Info("status api listening")
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve status api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown status api: %w", err)
		}
		return nil
	}
}

func writeJSON(conn *websocket.Conn, event domain.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

func toView(event domain.Event) accountView {
	return accountView{
		Account: event.Account,
		At:      event.At,
		Record:  event.Record,
		Proxies: event.Proxies,
	}
}

func normalizeLabel(raw string) string {
	label := strings.TrimSpace(raw)
	label = strings.ReplaceAll(label, "-", " ")
	label = strings.ReplaceAll(label, "_", " ")
	lower := strings.ToLower(label)

	if rest, ok := strings.CutPrefix(lower, "account "); ok {
		return "Account " + strings.TrimSpace(rest)
	}
	if lower != "" && strings.Trim(lower, "0123456789") == "" {
		return "Account " + lower
	}
	return label
}

// sameHostOrigin allows clients without an Origin header and pages served
// from the API host itself.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://"), "/")
	return strings.EqualFold(host, r.Host)
}
