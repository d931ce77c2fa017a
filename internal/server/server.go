// Package server streams generated dungeons to WebSocket clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/roomforge/internal/config"
	"github.com/lawnchairsociety/roomforge/internal/dungeon"
	"github.com/lawnchairsociety/roomforge/internal/logger"
	"github.com/lawnchairsociety/roomforge/internal/render"
)

// GenerateFunc builds the dungeon for one seed.
type GenerateFunc func(seed int64) (*dungeon.Dungeon, error)

// Frame is the JSON message sent for every request.
type Frame struct {
	Seed     int64       `json:"seed"`
	Attempt  int         `json:"attempt"`
	Rooms    []RoomFrame `json:"rooms,omitempty"`
	Overlaps int         `json:"overlaps"`
	Layout   []string    `json:"layout,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// RoomFrame is one placed room.
type RoomFrame struct {
	ID       int      `json:"id"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Template string   `json:"template"`
	Doorways []string `json:"doorways"`
	Depth    int      `json:"depth"`
	Parent   int      `json:"parent"`
}

// PreviewServer answers seed requests with generated dungeons.
type PreviewServer struct {
	cfg         config.PreviewConfig
	generate    GenerateFunc
	connLimiter *ConnLimiter
	strikes     *StrikeLimiter
	upgrader    websocket.Upgrader

	mu         sync.Mutex
	clients    map[*PreviewClient]struct{}
	closing    bool // set by Shutdown; no client is added after it
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewPreviewServer creates a preview server that calls gen for every request.
func NewPreviewServer(cfg config.PreviewConfig, gen GenerateFunc) *PreviewServer {
	s := &PreviewServer{
		cfg:         cfg,
		generate:    gen,
		connLimiter: NewConnLimiter(cfg),
		strikes:     NewStrikeLimiter(cfg.BadRequests),
		clients:     make(map[*PreviewClient]struct{}),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Preview connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	return s
}

// Handler returns the HTTP handler serving the feed at /ws.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	return mux
}

// ListenAndServe serves the feed on the configured address until Shutdown.
func (s *PreviewServer) ListenAndServe() error {
	s.mu.Lock()
	s.httpServer = &http.Server{Addr: s.cfg.Address, Handler: s.Handler()}
	srv := s.httpServer
	s.mu.Unlock()

	logger.Info("Preview server listening", "address", s.cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes every open feed and waits
// for the connection handlers to return.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	srv := s.httpServer
	clients := make([]*PreviewClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	for _, c := range clients {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	s.strikes.Stop()
	logger.Info("Preview server stopped")
	return err
}

// ClientCount returns the number of open feeds.
func (s *PreviewServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *PreviewServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if s.isClosing() {
		http.Error(w, "Server shutting down.", http.StatusServiceUnavailable)
		return
	}

	if locked, remaining := s.strikes.IsLocked(ip); locked {
		logger.Warning("Preview connection rejected - client locked out", "client_ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
		http.Error(w, "Too many bad requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("Preview connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Preview upgrade failed", "error", err)
		s.connLimiter.Release(ip)
		return
	}
	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	client := NewPreviewClient(conn, ip)
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		client.Close(websocket.CloseGoingAway, "server shutting down")
		s.connLimiter.Release(ip)
		return
	}
	s.clients[client] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.serveClient(client)
}

func (s *PreviewServer) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *PreviewServer) serveClient(c *PreviewClient) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		s.connLimiter.Release(c.RemoteAddr())
		c.conn.Close()
		s.wg.Done()
	}()

	logger.Info("Preview client connected", "client_ip", c.RemoteAddr())

	for {
		request, err := c.ReadRequest()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warning("Preview client read failed", "client_ip", c.RemoteAddr(), "error", err)
			}
			logger.Info("Preview client disconnected", "client_ip", c.RemoteAddr())
			return
		}

		seed, err := c.nextSeed(request)
		if err != nil {
			c.WriteFrame(Frame{Error: err.Error()})
			if locked, d := s.strikes.Strike(c.RemoteAddr()); locked {
				logger.Warning("Preview client locked out", "client_ip", c.RemoteAddr(), "duration", d)
				c.Close(websocket.ClosePolicyViolation, "too many bad requests")
				return
			}
			continue
		}

		if err := c.WriteFrame(s.buildFrame(seed)); err != nil {
			logger.Warning("Preview client write failed", "client_ip", c.RemoteAddr(), "error", err)
			return
		}
	}
}

// nextSeed parses a request. An empty request or "next" continues from the
// client's previous seed.
func (c *PreviewClient) nextSeed(request string) (int64, error) {
	request = strings.TrimSpace(request)
	if request == "" || strings.EqualFold(request, "next") {
		c.lastSeed++
		return c.lastSeed, nil
	}

	seed, err := strconv.ParseInt(request, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q", request)
	}
	c.lastSeed = seed
	return seed, nil
}

func (s *PreviewServer) buildFrame(seed int64) Frame {
	frame := Frame{Seed: seed}

	d, err := s.generate(seed)
	if err != nil {
		frame.Error = err.Error()
		return frame
	}

	frame.Attempt = d.Attempt
	frame.Overlaps = len(d.Rooms.Overlaps)
	for _, r := range d.Rooms.Rooms {
		var doorways []string
		for _, side := range r.Template.Doorways.Sides() {
			doorways = append(doorways, side.String())
		}
		frame.Rooms = append(frame.Rooms, RoomFrame{
			ID:       r.ID,
			X:        r.Position.X,
			Y:        r.Position.Y,
			Template: r.Template.ID,
			Doorways: doorways,
			Depth:    r.Depth,
			Parent:   r.Parent,
		})
	}

	var sb strings.Builder
	if err := render.Layout(&sb, d.Layout, render.Plain()); err == nil {
		frame.Layout = strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	}

	return frame
}
