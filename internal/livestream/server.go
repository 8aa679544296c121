package livestream

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"hanachan/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 20 * time.Second
	pongMultiplier = 3
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server exposes a Stream over a single websocket endpoint: every
// connection is a read-only observer that receives FrameEvents as the
// simulation runs.
type Server struct {
	stream *Stream
	log    *logging.Logger
	http   *http.Server
}

// NewServer builds a Server broadcasting stream's events at addr.
func NewServer(addr string, stream *Stream, log *logging.Logger) *Server {
	if log == nil {
		log = logging.L()
	}
	mux := http.NewServeMux()
	s := &Server{stream: stream, log: log}
	mux.HandleFunc("/stream", s.handleUpgrade)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe starts the HTTP listener, blocking until it stops.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.http.Close()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("livestream upgrade failed", logging.Error(err))
		return
	}
	id := randomSubscriberID()
	sub, err := s.stream.Subscribe(id, 64)
	if err != nil {
		s.log.Warn("livestream subscribe failed", logging.Error(err))
		_ = conn.Close()
		return
	}

	waitDuration := pongMultiplier * pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(waitDuration))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(waitDuration))
	})

	// The observer connection is write-only from the server's point of
	// view; a background reader drains and discards control frames so
	// pong handling keeps firing, and detects disconnects.
	go func() {
		defer func() {
			sub.Close()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				s.log.Warn("livestream write failed", logging.Error(err))
				sub.Close()
				_ = conn.Close()
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				sub.Close()
				_ = conn.Close()
				return
			}
		}
	}
}

func randomSubscriberID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "subscriber"
	}
	return hex.EncodeToString(buf[:])
}
