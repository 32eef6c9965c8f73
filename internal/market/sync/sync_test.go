package sync

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gridhangar/internal/market"
	"gridhangar/internal/protocol"
)

func newNode(t *testing.T, name string) (*Node, *market.Board) {
	t.Helper()
	b, err := market.NewBoard(name, log.New(io.Discard, "", 0), nil)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	return NewNode(name, b, log.New(io.Discard, "", 0)), b
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDial_PullsFullBoard(t *testing.T) {
	server, serverBoard := newNode(t, "node_a")
	serverBoard.AddListing(protocol.Listing{ListingID: "l1", Name: "Miner", Seller: "Bob", SellerID: 11, Price: 1000}, nil)
	serverBoard.AddListing(protocol.Listing{ListingID: "l2", Name: "Hauler", Seller: "Eve", SellerID: 22, Price: 2000}, nil)

	ts := httptest.NewServer(http.HandlerFunc(server.Handler()))
	defer ts.Close()

	client, clientBoard := newNode(t, "node_b")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/market"
	if err := client.Dial(context.Background(), url); err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitFor(t, func() bool { return len(clientBoard.Listings()) == 2 }, "board sync")
	ls := clientBoard.Listings()
	if ls[0].ListingID != "l1" || ls[1].ListingID != "l2" {
		t.Fatalf("synced board: %+v", ls)
	}
}

func TestBroadcast_Replicates(t *testing.T) {
	server, serverBoard := newNode(t, "node_a")
	ts := httptest.NewServer(http.HandlerFunc(server.Handler()))
	defer ts.Close()

	client, _ := newNode(t, "node_b")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/market"
	if err := client.Dial(context.Background(), url); err != nil {
		t.Fatalf("dial: %v", err)
	}
	// The dial handshake lands as a peer on the server side.
	waitFor(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()
		return len(server.peers) == 1
	}, "peer registration")

	client.Broadcast(&protocol.AddOneMsg{
		Type:            protocol.TypeAddOne,
		ProtocolVersion: protocol.Version,
		MsgID:           NewMsgID(),
		Node:            "node_b",
		Listing:         protocol.Listing{ListingID: "l9", Name: "Welder", Seller: "Bob", SellerID: 11, Price: 500},
	})
	waitFor(t, func() bool { return len(serverBoard.Listings()) == 1 }, "listing replication")

	client.Broadcast(&protocol.RemoveOneMsg{
		Type:            protocol.TypeRemoveOne,
		ProtocolVersion: protocol.Version,
		MsgID:           NewMsgID(),
		Node:            "node_b",
		ListingID:       "l9",
	})
	waitFor(t, func() bool { return len(serverBoard.Listings()) == 0 }, "listing withdrawal")
}

func TestServe_DropsMalformedEnvelopes(t *testing.T) {
	server, serverBoard := newNode(t, "node_a")
	ts := httptest.NewServer(http.HandlerFunc(server.Handler()))
	defer ts.Close()

	client, _ := newNode(t, "node_b")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/market"
	if err := client.Dial(context.Background(), url); err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()
		return len(server.peers) == 1
	}, "peer registration")

	// An unknown tag must be dropped without killing the link.
	client.Broadcast(&struct {
		Type  string `json:"type"`
		MsgID string `json:"msg_id"`
	}{Type: "SELL_EVERYTHING", MsgID: NewMsgID()})

	client.Broadcast(&protocol.AddOneMsg{
		Type:            protocol.TypeAddOne,
		ProtocolVersion: protocol.Version,
		MsgID:           NewMsgID(),
		Node:            "node_b",
		Listing:         protocol.Listing{ListingID: "l1", Name: "Miner", Seller: "Bob", SellerID: 11, Price: 100},
	})
	waitFor(t, func() bool { return len(serverBoard.Listings()) == 1 }, "link survival")
}
