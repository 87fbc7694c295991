package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/weather"
)

const (
	streamWriteWait = 5 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
}

// streamFrame is one websocket message: "hello" on connect with the
// current clock, then "tick" per simulated hour.
type streamFrame struct {
	Type      string                 `json:"type"`
	Tick      uint64                 `json:"tick"`
	Day       int                    `json:"day"`
	Hour      int                    `json:"hour"`
	Phase     engine.Phase           `json:"phase"`
	Weather   weather.Kind           `json:"weather"`
	Metrics   engine.Metrics         `json:"metrics"`
	Events    []engine.WorldEvent    `json:"events,omitempty"`
	News      []engine.NewsItem      `json:"news,omitempty"`
	Chronicle *engine.ChronicleEntry `json:"chronicle,omitempty"`
}

// hub fans tick frames out to every connected stream client. A slow
// reader drops frames rather than stalling the runner.
type hub struct {
	mu   sync.Mutex
	subs map[uint64]chan []byte
	next uint64
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]chan []byte)}
}

func (h *hub) subscribe() (uint64, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	ch := make(chan []byte, 64)
	h.subs[h.next] = ch
	return h.next, ch
}

func (h *hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) publish(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

func (s *Server) streamHub() *hub {
	s.streamOnce.Do(func() { s.stream = newHub() })
	return s.stream
}

// Broadcast pushes one tick result to every stream subscriber. The serve
// loop wires this into the runner's OnResult.
func (s *Server) Broadcast(res *engine.Result) {
	if res == nil || res.State == nil {
		return
	}
	st := res.State
	b, err := json.Marshal(streamFrame{
		Type:      "tick",
		Tick:      st.Tick,
		Day:       st.Day,
		Hour:      st.Hour,
		Phase:     st.Phase,
		Weather:   st.Weather,
		Metrics:   st.Metrics,
		Events:    res.Events,
		News:      res.News,
		Chronicle: res.Chronicle,
	})
	if err != nil {
		return
	}
	s.streamHub().publish(b)
}

// handleStream upgrades to a websocket and feeds the client one frame per
// tick until it disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, ch := s.streamHub().subscribe()
	defer s.streamHub().unsubscribe(id)

	// Greet with the current clock so clients can draw before the next tick.
	st := s.Runner.Snapshot()
	hello, err := json.Marshal(streamFrame{
		Type:    "hello",
		Tick:    st.Tick,
		Day:     st.Day,
		Hour:    st.Hour,
		Phase:   st.Phase,
		Weather: st.Weather,
		Metrics: st.Metrics,
	})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}
	}
	slog.Info("stream client connected", "sub_id", id)

	// Writer: hub frames plus keepalive pings.
	writeErr := make(chan error, 1)
	go func() {
		ping := time.NewTicker(streamPingEvery)
		defer ping.Stop()
		for {
			select {
			case b, ok := <-ch:
				if !ok {
					writeErr <- nil
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Reader: clients send nothing we act on; this notices disconnects.
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.streamHub().unsubscribe(id)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))

	// Best-effort wait so the writer doesn't outlive conn.
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	slog.Info("stream client disconnected", "sub_id", id)
}
