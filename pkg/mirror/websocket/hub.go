// Package websocket streams transmitted frames to websocket clients in
// candump text form, one frame per message.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/framework"
)

// ClientQueueSize is the number of frames buffered per client. Frames
// are dropped for clients not keeping up.
const ClientQueueSize = 16

// Hub fans frames out to connected clients.
type Hub struct {
	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	frameCh chan string
	dropped int
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Send implements bus.Sender. It never blocks.
func (h *Hub) Send(f bus.Frame) error {
	msg := f.String()
	h.lock.Lock()
	for c := range h.clients {
		select {
		case c.frameCh <- msg:
		default:
			c.dropped++
		}
	}
	h.lock.Unlock()
	return nil
}

// Handler returns the http.Handler accepting websocket clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{conn: conn, frameCh: make(chan string, ClientQueueSize)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.V(1).Infof("monitor client %s connected", conn.Request().RemoteAddr)

	defer func() {
		h.lock.Lock()
		delete(h.clients, c)
		dropped := c.dropped
		h.lock.Unlock()
		conn.Close()
		glog.V(1).Infof("monitor client %s disconnected, %d frames dropped",
			conn.Request().RemoteAddr, dropped)
	}()

	closedCh := make(chan struct{})
	go func() {
		defer close(closedCh)
		var discard []byte
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.frameCh:
			if err := websocket.Message.Send(conn, msg); err != nil {
				return
			}
		case <-closedCh:
			return
		}
	}
}

// Server serves the Hub on an address.
type Server struct {
	Addr string
	Hub  *Hub

	listener net.Listener
}

// NewServer creates a Server listening on addr. The listener is created
// immediately so address errors are reported early.
func NewServer(addr string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{Addr: ln.Addr().String(), Hub: hub, listener: ln}, nil
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "monitor"
}

// Run implements framework.Runnable. A serving failure only disables the
// monitor, Run still waits for ctx.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/frames", s.Hub.Handler())
	server := &http.Server{Handler: mux}
	glog.Infof("monitor listening on %s", s.Addr)
	err := framework.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}, func() error {
		return server.Serve(s.listener)
	})
	if err != nil && err != context.Canceled && err != http.ErrServerClosed {
		glog.Errorf("monitor stopped: %v", err)
	}
	<-ctx.Done()
	return ctx.Err()
}

// AddToLoop implements framework.LoopAdder.
func (s *Server) AddToLoop(loop *framework.Loop) {
	loop.AddRunnable(s)
}
