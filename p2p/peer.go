package p2p

// peer.go — the peer table (spec §3/§4.8): tracking sockets this node has
// dialed out to ("opened"), accepted inbound ("connected"), and every
// address it has ever heard about via handshake gossip ("known"). Grounded
// on this module's peer_management.go PeerManagement type, generalized from
// its libp2p host/pubsub plumbing to a plain gorilla/websocket connection
// map.

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Peer is one live WebSocket connection to another node.
type Peer struct {
	ID         string
	Addr       string
	Conn       *websocket.Conn
	Outbound   bool
	ConnectedAt time.Time

	writeMu sync.Mutex
}

// Send writes an envelope to this peer. Safe for concurrent use.
func (p *Peer) Send(env *Envelope) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.Conn.WriteJSON(env)
}

// PeerTable tracks every peer this node knows about, organized per spec
// §4.8's opened/connected/known split.
type PeerTable struct {
	mu        sync.RWMutex
	opened    map[string]*Peer // outbound connections this node dialed
	connected map[string]*Peer // inbound connections accepted from others
	known     map[string]bool  // every address ever heard about, dialed or not
	log       *logrus.Logger
}

func NewPeerTable(log *logrus.Logger) *PeerTable {
	return &PeerTable{
		opened:    make(map[string]*Peer),
		connected: make(map[string]*Peer),
		known:     make(map[string]bool),
		log:       log,
	}
}

// AddOutbound registers a connection this node dialed.
func (t *PeerTable) AddOutbound(addr string, conn *websocket.Conn) *Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := &Peer{ID: uuid.New().String(), Addr: addr, Conn: conn, Outbound: true, ConnectedAt: time.Now()}
	t.opened[addr] = p
	t.known[addr] = true
	t.log.WithFields(logrus.Fields{"peer": p.ID, "addr": addr}).Info("peer connected (outbound)")
	return p
}

// AddInbound registers a connection accepted from a remote dialer, keyed by
// its session ID. The peer's Addr stays empty; a later HANDSHAKE from it
// does not fill it in.
func (t *PeerTable) AddInbound(conn *websocket.Conn) *Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := &Peer{ID: uuid.New().String(), Conn: conn, Outbound: false, ConnectedAt: time.Now()}
	t.connected[p.ID] = p
	t.log.WithField("peer", p.ID).Info("peer connected (inbound)")
	return p
}

// Remove drops a peer from whichever live-connection set it is in.
func (t *PeerTable) Remove(p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.opened, p.Addr)
	delete(t.connected, p.ID)
	t.log.WithField("peer", p.ID).Info("peer disconnected")
}

// LearnAddresses merges a handshake's advertised peer addresses into the
// known set, without dialing them (the caller decides whether to connect).
func (t *PeerTable) LearnAddresses(addrs []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	fresh := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if !t.known[a] {
			t.known[a] = true
			fresh = append(fresh, a)
		}
	}
	return fresh
}

// KnownAddresses returns every address this node has ever heard about, for
// inclusion in this node's own HANDSHAKE payload.
func (t *PeerTable) KnownAddresses() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.known))
	for a := range t.known {
		out = append(out, a)
	}
	return out
}

// All returns every live peer connection, inbound and outbound, for
// broadcast fan-out.
func (t *PeerTable) All() []*Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Peer, 0, len(t.opened)+len(t.connected))
	for _, p := range t.opened {
		out = append(out, p)
	}
	for _, p := range t.connected {
		out = append(out, p)
	}
	return out
}
