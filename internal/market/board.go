// Package market keeps the cross-node market board: listings, account
// balances, the local grid definitions backing listings, and the applied
// balance-delta ledger. State changes arrive from local commands and from
// replicated envelopes; both funnel through Board, which mirrors everything
// into marketdb when one is attached.
package market

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"gridhangar/internal/persistence/marketdb"
	"gridhangar/internal/protocol"
)

// Account is one platform account's market balance on this node.
type Account struct {
	Name       string
	PlatformID uint64
	Balance    int64
}

type Board struct {
	node string
	log  *log.Logger
	db   *marketdb.DB // optional mirror

	mu       sync.Mutex
	order    []string
	listings map[string]protocol.Listing
	defs     map[string][]byte // listingID -> compressed definition
	accounts map[uint64]*Account
	applied  map[uint64]map[uint64]bool // platform -> applied delta seqs
	nextSeq  map[uint64]uint64

	// OnPurchased is invoked after a PURCHASED_GRID envelope is applied, so
	// the host can hand the grid to the buyer's hangar.
	OnPurchased func(protocol.PurchasedGridMsg)
}

func NewBoard(node string, logger *log.Logger, db *marketdb.DB) (*Board, error) {
	b := &Board{
		node:     node,
		log:      logger,
		db:       db,
		listings: map[string]protocol.Listing{},
		defs:     map[string][]byte{},
		accounts: map[uint64]*Account{},
		applied:  map[uint64]map[uint64]bool{},
		nextSeq:  map[uint64]uint64{},
	}
	if db == nil {
		return b, nil
	}
	ls, err := db.Listings()
	if err != nil {
		return nil, fmt.Errorf("hydrate listings: %w", err)
	}
	for _, l := range ls {
		b.listings[l.ListingID] = l
		b.order = append(b.order, l.ListingID)
	}
	accts, err := db.Accounts()
	if err != nil {
		return nil, fmt.Errorf("hydrate accounts: %w", err)
	}
	for pid, a := range accts {
		b.accounts[pid] = &Account{Name: a.Name, PlatformID: a.PlatformID, Balance: a.Balance}
	}
	b.applied, err = db.AppliedSeqs()
	if err != nil {
		return nil, fmt.Errorf("hydrate applied seqs: %w", err)
	}
	for pid, seqs := range b.applied {
		for s := range seqs {
			if s >= b.nextSeq[pid] {
				b.nextSeq[pid] = s + 1
			}
		}
	}
	return b, nil
}

// AddListing inserts or refreshes a listing. def may be nil for listings
// replicated from another node.
func (b *Board) AddListing(l protocol.Listing, def []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listings[l.ListingID]; !ok {
		b.order = append(b.order, l.ListingID)
	}
	b.listings[l.ListingID] = l
	if def != nil {
		b.defs[l.ListingID] = def
	}
	if b.db != nil {
		b.db.UpsertListing(l)
	}
}

// RemoveListing withdraws a listing; unknown ids are a no-op.
func (b *Board) RemoveListing(listingID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listings[listingID]; !ok {
		return
	}
	delete(b.listings, listingID)
	delete(b.defs, listingID)
	for i, id := range b.order {
		if id == listingID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.db != nil {
		b.db.DeleteListing(listingID)
	}
}

// Listings returns the board in insertion order.
func (b *Board) Listings() []protocol.Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]protocol.Listing, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.listings[id])
	}
	return out
}

// Definition returns the stored grid definition for a local listing.
func (b *Board) Definition(listingID string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.defs[listingID]
	return d, ok
}

// Balance returns the current balance for a platform account.
func (b *Board) Balance(platformID uint64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.accounts[platformID]; a != nil {
		return a.Balance
	}
	return 0
}

// NextSeq hands out the next per-account delta sequence number for
// envelopes this node emits.
func (b *Board) NextSeq(platformID uint64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.nextSeq[platformID]
	b.nextSeq[platformID] = s + 1
	return s + 1
}

// ApplyBalance applies one balance update. Adjustments set the absolute
// balance and are idempotent. Deltas are applied at most once per
// (account, seq); a delta without a sequence number is refused outright.
func (b *Board) ApplyBalance(u protocol.BalanceUpdate) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.accounts[u.PlatformID]
	if a == nil {
		a = &Account{PlatformID: u.PlatformID}
		b.accounts[u.PlatformID] = a
	}
	if u.Name != "" {
		a.Name = u.Name
	}

	if u.Adjustment {
		a.Balance = u.Amount
	} else {
		if u.Seq == 0 {
			return false, fmt.Errorf("balance delta for %d without seq", u.PlatformID)
		}
		if b.applied[u.PlatformID][u.Seq] {
			return false, nil
		}
		if b.applied[u.PlatformID] == nil {
			b.applied[u.PlatformID] = map[uint64]bool{}
		}
		b.applied[u.PlatformID][u.Seq] = true
		if u.Seq >= b.nextSeq[u.PlatformID] {
			b.nextSeq[u.PlatformID] = u.Seq + 1
		}
		a.Balance += u.Amount
		if b.db != nil {
			b.db.RecordSeq(u.PlatformID, u.Seq)
		}
	}
	if b.db != nil {
		b.db.UpsertAccount(a.PlatformID, a.Name, a.Balance)
	}
	return true, nil
}

// HandleMessage applies one decoded envelope and returns any messages to
// send back on the same link.
func (b *Board) HandleMessage(msg any) []any {
	switch m := msg.(type) {
	case *protocol.RequestAllItemsMsg:
		var out []any
		for _, l := range b.Listings() {
			out = append(out, &protocol.AddOneMsg{
				Type:            protocol.TypeAddOne,
				ProtocolVersion: protocol.Version,
				MsgID:           uuid.NewString(),
				Node:            b.node,
				Listing:         l,
			})
		}
		return out
	case *protocol.AddOneMsg:
		b.AddListing(m.Listing, nil)
	case *protocol.RemoveOneMsg:
		b.RemoveListing(m.ListingID)
	case *protocol.SendDefinitionMsg:
		b.mu.Lock()
		b.defs[m.ListingID] = m.Grid.Definition
		b.mu.Unlock()
	case *protocol.PurchasedGridMsg:
		b.RemoveListing(m.ListingID)
		for _, u := range m.Balances {
			if _, err := b.ApplyBalance(u); err != nil {
				b.log.Printf("market: %s: %v", protocol.ErrProtoTagPayload, err)
			}
		}
		if b.OnPurchased != nil {
			b.OnPurchased(*m)
		}
	}
	return nil
}
