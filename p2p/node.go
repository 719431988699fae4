package p2p

// node.go — the gossip transport itself: a WebSocket server accepting
// inbound peers plus a dialer for outbound ones, both reading/writing
// Envelope frames. Grounded on this module's NewNode bootstrap shape
// (core/network.go) — context-scoped lifecycle, a logrus logger threaded
// through, bootstrap peers dialed at startup — generalized from a libp2p
// host to gorilla/websocket's http.Server/Dialer pair.

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler processes one inbound Envelope from a given peer. It has no return
// value and never tears down the connection (spec §7: malformed gossip
// messages are dropped silently).
type Handler func(ctx context.Context, from *Peer, env *Envelope)

// Node is a gossip-mesh participant: it accepts inbound WebSocket
// connections, dials configured bootstrap peers, and fans out Broadcast
// calls to every live connection.
type Node struct {
	Addr string // this node's own dial address, advertised in handshakes

	peers   *PeerTable
	log     *logrus.Logger
	handler Handler

	upgrader websocket.Upgrader
	server   *http.Server
}

// NewNode constructs a gossip node advertising selfAddr to peers during
// handshake. ListenAndServe takes the address to listen on.
func NewNode(selfAddr string, log *logrus.Logger, handler Handler) *Node {
	return &Node{
		Addr:    selfAddr,
		peers:   NewPeerTable(log),
		log:     log,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Peers exposes the node's peer table, e.g. for the HANDSHAKE handler's
// address learning.
func (n *Node) Peers() *PeerTable { return n.peers }

// ListenAndServe starts accepting inbound WebSocket connections at
// listenAddr and blocks until ctx is cancelled.
func (n *Node) ListenAndServe(ctx context.Context, listenAddr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/gossip", func(w http.ResponseWriter, r *http.Request) {
		conn, err := n.upgrader.Upgrade(w, r, nil)
		if err != nil {
			n.log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		peer := n.peers.AddInbound(conn)
		go n.readLoop(ctx, peer)
	})

	n.server = &http.Server{Addr: listenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- n.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return n.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Dial connects to a remote gossip node, sends our HANDSHAKE, and starts a
// read loop for the connection.
func (n *Node) Dial(ctx context.Context, addr string) (*Peer, error) {
	url := fmt.Sprintf("ws://%s/gossip", addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	peer := n.peers.AddOutbound(addr, conn)

	if err := peer.Send(&Envelope{
		Type: Handshake,
		Data: HandshakePayload{Peers: append(n.peers.KnownAddresses(), n.Addr)},
	}); err != nil {
		n.log.WithError(err).Warn("failed to send initial handshake")
	}

	go n.readLoop(ctx, peer)
	return peer, nil
}

// DialSeeds dials every address in seeds, logging (not failing) on
// individual dial errors — a single unreachable bootstrap peer must not
// prevent the node from starting (spec §4.8).
func (n *Node) DialSeeds(ctx context.Context, seeds []string) {
	for _, addr := range seeds {
		if _, err := n.Dial(ctx, addr); err != nil {
			n.log.WithError(err).WithField("addr", addr).Warn("bootstrap dial failed")
		}
	}
}

func (n *Node) readLoop(ctx context.Context, peer *Peer) {
	defer func() {
		peer.Conn.Close()
		n.peers.Remove(peer)
	}()
	for {
		var env Envelope
		if err := peer.Conn.ReadJSON(&env); err != nil {
			if ctx.Err() == nil {
				n.log.WithError(err).WithField("peer", peer.ID).Debug("peer connection closed")
			}
			return
		}
		n.handler(ctx, peer, &env)
	}
}

// Broadcast sends env to every currently live peer, skipping (and logging)
// any that fail rather than aborting the whole fan-out.
func (n *Node) Broadcast(env *Envelope) {
	for _, peer := range n.peers.All() {
		if err := peer.Send(env); err != nil {
			n.log.WithError(err).WithField("peer", peer.ID).Debug("broadcast send failed")
		}
	}
}
