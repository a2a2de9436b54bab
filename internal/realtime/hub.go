package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	SeatBooked   = "booked"
	SeatReleased = "released"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

type SeatEvent struct {
	ShowID     int    `json:"showId"`
	SeatID     int    `json:"seatId"`
	SeatNumber string `json:"seatNumber"`
	Status     string `json:"status"`
}

type subscriber struct {
	send chan []byte
}

// Hub fans seat events out to the websocket clients watching a show's seat map.
type Hub struct {
	mu       sync.RWMutex
	shows    map[int]map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		shows: make(map[int]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Publish delivers events to every subscriber of the show. Subscribers whose
// buffer is full are dropped.
func (h *Hub) Publish(showID int, events ...SeatEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.shows[showID]
	if len(subs) == 0 {
		return
	}

	for _, ev := range events {
		ev.ShowID = showID

		msg, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("failed to encode seat event", "error", err)
			continue
		}

		for sub := range subs {
			select {
			case sub.send <- msg:
			default:
				delete(subs, sub)
				close(sub.send)
			}
		}
	}

	if len(subs) == 0 {
		delete(h.shows, showID)
	}
}

func (h *Hub) Subscribers(showID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.shows[showID])
}

func (h *Hub) subscribe(showID int) *subscriber {
	sub := &subscriber{send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shows[showID] == nil {
		h.shows[showID] = make(map[*subscriber]struct{})
	}
	h.shows[showID][sub] = struct{}{}

	return sub
}

func (h *Hub) unsubscribe(showID int, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.shows[showID]
	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.send)

	if len(subs) == 0 {
		delete(h.shows, showID)
	}
}

// Serve upgrades the request to a websocket and streams the show's seat events
// until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, showID int) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := h.subscribe(showID)

	go h.writePump(conn, sub)
	h.readPump(conn, showID, sub)

	return nil
}

// readPump discards client messages and exists to notice disconnects and pongs.
func (h *Hub) readPump(conn *websocket.Conn, showID int, sub *subscriber) {
	defer func() {
		h.unsubscribe(showID, sub)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("seat map websocket closed unexpectedly", "show_id", showID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
