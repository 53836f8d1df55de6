/**
 * @description
 * Live donation feed over WebSocket. Connected page viewers receive each
 * newly completed public donation as a JSON message, so the recent-donations
 * list updates without polling. The hub keeps a thread-safe connection pool
 * and drops peers that stop answering pings.
 *
 * @dependencies
 * - github.com/gorilla/websocket: Connection upgrade and framing.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/freedomfund/donation-service/internal/domain"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The feed is public read-only data, so cross-origin pages may attach.
		return true
	},
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// DonationFeed broadcasts completed donations to connected WebSocket clients.
// It implements app.DonationBroadcaster.
type DonationFeed struct {
	mu      sync.Mutex
	clients map[string]*wsClient
}

// NewDonationFeed creates an empty feed hub.
func NewDonationFeed() *DonationFeed {
	return &DonationFeed{clients: make(map[string]*wsClient)}
}

// donationMessage is the wire envelope pushed to feed subscribers.
type donationMessage struct {
	Type     string                    `json:"type"`
	Donation domain.DonationProjection `json:"donation"`
}

// BroadcastDonation fans a completed donation out to every connected client.
// Slow clients are dropped rather than allowed to stall the hub.
func (f *DonationFeed) BroadcastDonation(projection domain.DonationProjection) {
	data, err := json.Marshal(donationMessage{Type: "donation.completed", Donation: projection})
	if err != nil {
		log.Printf("level=error component=ws msg=\"failed to marshal donation message\" err=%v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, client := range f.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("level=warn component=ws msg=\"dropping slow client\" conn_id=%s", id)
			close(client.send)
			delete(f.clients, id)
		}
	}
}

// ConnectionCount reports how many clients are attached, for the health view.
func (f *DonationFeed) ConnectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request and attaches the client to the feed.
func (f *DonationFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("level=warn component=ws msg=\"upgrade failed\" remote=%s err=%v", r.RemoteAddr, err)
		return
	}

	id := uuid.NewString()
	client := &wsClient{conn: conn, send: make(chan []byte, 8)}

	f.mu.Lock()
	f.clients[id] = client
	f.mu.Unlock()
	log.Printf("level=info component=ws msg=\"client connected\" conn_id=%s remote=%s", id, r.RemoteAddr)

	go f.writeLoop(id, client)
	go f.readLoop(id, client)
}

func (f *DonationFeed) detach(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if client, ok := f.clients[id]; ok {
		close(client.send)
		delete(f.clients, id)
	}
}

// readLoop drains inbound frames so pong handlers run, and tears the
// connection down when the peer goes away.
func (f *DonationFeed) readLoop(id string, client *wsClient) {
	defer func() {
		f.detach(id)
		client.conn.Close()
		log.Printf("level=info component=ws msg=\"client disconnected\" conn_id=%s", id)
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("level=warn component=ws msg=\"read error\" conn_id=%s err=%v", id, err)
			}
			return
		}
	}
}

func (f *DonationFeed) writeLoop(id string, client *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
