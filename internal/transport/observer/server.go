package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"boomtrees.dev/internal/observerproto"
)

const sessionQueue = 4096

// Info supplies the bootstrap payload.
type Info func() observerproto.BootstrapResponse

// ChunkSource returns the encoded chunk at (cx, cz), or false when it is not
// available.
type ChunkSource func(cx, cz int) (observerproto.ChunkMsg, bool)

type Server struct {
	hub    *Hub
	info   Info
	chunks ChunkSource
	log    *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(hub *Hub, info Info, logger *log.Logger) *Server {
	return &Server{
		hub:  hub,
		info: info,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only anyway
		},
	}
}

// WithChunks enables the chunk endpoint.
func (s *Server) WithChunks(src ChunkSource) *Server {
	s.chunks = src
	return s
}

// Mux mounts the bootstrap, chunk and feed handlers.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/v1/observer/chunk", s.ChunkHandler())
	mux.HandleFunc("/v1/audit", s.WSHandler())
	return mux
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var resp observerproto.BootstrapResponse
		if s.info != nil {
			resp = s.info()
		}
		resp.ProtocolVersion = observerproto.Version

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) ChunkHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		cx, err1 := strconv.Atoi(q.Get("cx"))
		cz, err2 := strconv.Atoi(q.Get("cz"))
		if err1 != nil || err2 != nil {
			http.Error(rw, "cx and cz must be integers", http.StatusBadRequest)
			return
		}
		if s.chunks == nil {
			http.NotFound(rw, r)
			return
		}
		msg, ok := s.chunks(cx, cz)
		if !ok {
			http.NotFound(rw, r)
			return
		}
		msg.ProtocolVersion = observerproto.Version

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(msg)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := decodeSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, sessionQueue)
		s.hub.join(sid, out, sub)
		defer s.hub.leave(sid)
		if s.log != nil {
			s.log.Printf("observer %s subscribed actions=%v replay=%d", sid, sub.Actions, sub.Replay)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := decodeSubscribe(msg); ok {
				s.hub.resubscribe(sid, sub)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func decodeSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	if sub.Replay < 0 {
		sub.Replay = 0
	}
	if sub.Replay > defaultRecent {
		sub.Replay = defaultRecent
	}
	return sub, true
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
