// Package sync replicates the market board between cooperating server
// nodes over websocket. Each envelope is one-shot and self-describing;
// there is no session state beyond the connection itself.
package sync

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gridhangar/internal/market"
	"gridhangar/internal/protocol"
)

type Node struct {
	node  string
	board *market.Board
	log   *log.Logger

	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[*peer]struct{}
}

type peer struct {
	out chan []byte
}

func NewNode(node string, board *market.Board, logger *log.Logger) *Node {
	return &Node{
		node:  node,
		board: board,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // node-to-node link
		},
		peers: map[*peer]struct{}{},
	}
}

// Handler accepts inbound peer links.
func (n *Node) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := n.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		n.serve(conn)
	}
}

// Dial connects out to a peer node and requests its full board.
func (n *Node) Dial(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	go func() {
		b, err := protocol.EncodeMessage(&protocol.RequestAllItemsMsg{
			Type:            protocol.TypeRequestAllItems,
			ProtocolVersion: protocol.Version,
			MsgID:           uuid.NewString(),
			Node:            n.node,
		})
		if err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		n.serve(conn)
	}()
	return nil
}

func (n *Node) serve(conn *websocket.Conn) {
	defer conn.Close()

	p := &peer{out: make(chan []byte, 64)}
	n.mu.Lock()
	n.peers[p] = struct{}{}
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.peers, p)
		n.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Writer goroutine.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-p.out:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Reader loop.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			cancel()
			return
		}
		msg, err := protocol.DecodeMessage(raw)
		if err != nil {
			// Tag/payload mismatch is a protocol violation: log and drop,
			// never interpret.
			n.log.Printf("sync: drop envelope: %v", err)
			continue
		}
		for _, resp := range n.board.HandleMessage(msg) {
			b, err := protocol.EncodeMessage(resp)
			if err != nil {
				continue
			}
			select {
			case p.out <- b:
			default:
				n.log.Printf("sync: peer outbox full, dropping %T", resp)
			}
		}
	}
}

// Broadcast sends a locally originated envelope to every connected peer.
func (n *Node) Broadcast(msg any) {
	b, err := protocol.EncodeMessage(msg)
	if err != nil {
		n.log.Printf("sync: encode %T: %v", msg, err)
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for p := range n.peers {
		select {
		case p.out <- b:
		default:
			n.log.Printf("sync: peer outbox full, dropping %T", msg)
		}
	}
}

// NewMsgID labels a locally originated envelope.
func NewMsgID() string { return uuid.NewString() }
