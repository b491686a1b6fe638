// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"codeclab/internal/bus"
	applog "codeclab/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketPath is the endpoint clients connect to.
const WebSocketPath = "/ws"

const writeTimeout = time.Second

// WebSocketTransport broadcasts envelopes as JSON to every connected
// client. A single goroutine writes to the connections. Trace frames are
// rate limited; status and variant events are always queued.
type WebSocketTransport struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	broadcast chan Envelope
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	traceMu       sync.Mutex
	lastTrace     time.Time
	traceInterval time.Duration
}

var _ Transport = (*WebSocketTransport)(nil)

// NewWebSocketTransport creates a transport for addr. Trace frames closer
// than traceInterval are dropped. Start begins serving.
func NewWebSocketTransport(addr string, traceInterval time.Duration) *WebSocketTransport {
	return &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local lab page, any origin
			},
		},
		clients:       make(map[*websocket.Conn]bool),
		broadcast:     make(chan Envelope, 256),
		done:          make(chan struct{}),
		traceInterval: traceInterval,
	}
}

// Start listens on the configured address and serves clients in the
// background.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return fmt.Errorf("websocket listen %s: %w", wst.addr, err)
	}
	wst.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, wst.handleWebSocket)
	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		applog.Infof("WebSocketTransport: Serving on ws://%s%s", ln.Addr(), WebSocketPath)
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	go func() {
		defer wst.wg.Done()
		wst.handleBroadcasts()
	}()
	return nil
}

// Addr returns the listening address, or the configured one before Start.
func (wst *WebSocketTransport) Addr() string {
	if wst.listener != nil {
		return wst.listener.Addr().String()
	}
	return wst.addr
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Clients never send; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

// handleBroadcasts sends queued envelopes to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case env := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(env); err != nil {
					applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues env for broadcast. It drops the envelope when the queue is
// full or when a trace frame arrives before the trace interval elapsed.
func (wst *WebSocketTransport) Send(env Envelope) error {
	if env.Topic == bus.TopicTrace && !wst.admitTrace() {
		return nil
	}
	select {
	case <-wst.done:
		return errors.New("websocket transport closed")
	default:
	}
	select {
	case wst.broadcast <- env:
	default:
		applog.Debugf("WebSocketTransport: Queue full, dropping %s", env.Topic)
	}
	return nil
}

func (wst *WebSocketTransport) admitTrace() bool {
	wst.traceMu.Lock()
	defer wst.traceMu.Unlock()
	now := time.Now()
	if now.Sub(wst.lastTrace) < wst.traceInterval {
		return false
	}
	wst.lastTrace = now
	return true
}

// Close disconnects every client and stops the server. It is idempotent.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Debugf("WebSocketTransport: Closing server")
		close(wst.done)

		if wst.server != nil {
			err = wst.server.Close()
		}
		wst.wg.Wait()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()
	})
	return err
}
