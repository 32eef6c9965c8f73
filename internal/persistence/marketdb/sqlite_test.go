package marketdb

import (
	"path/filepath"
	"sync"
	"testing"

	"gridhangar/internal/protocol"
)

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	d.UpsertListing(protocol.Listing{ListingID: "l1", Name: "Miner", Seller: "Bob", SellerID: 11, Price: 5000})
	d.UpsertListing(protocol.Listing{ListingID: "l2", Name: "Hauler", Seller: "Eve", SellerID: 22, Price: 9000})
	d.UpsertListing(protocol.Listing{ListingID: "l1", Name: "Miner Mk2", Seller: "Bob", SellerID: 11, Price: 6000})
	d.DeleteListing("l2")
	d.UpsertAccount(11, "Bob", 250000)
	d.UpsertAccount(11, "Bob", 244000)
	d.RecordSeq(11, 1)
	d.RecordSeq(11, 2)
	d.RecordSeq(11, 2)
	// Close drains the writer queue before the db handle goes away.
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()

	ls, err := d.Listings()
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if len(ls) != 1 {
		t.Fatalf("want 1 listing, got %d", len(ls))
	}
	if ls[0].ListingID != "l1" || ls[0].Name != "Miner Mk2" || ls[0].Price != 6000 {
		t.Fatalf("upsert lost: %+v", ls[0])
	}

	accts, err := d.Accounts()
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	a, ok := accts[11]
	if !ok || a.Name != "Bob" || a.Balance != 244000 {
		t.Fatalf("account: %+v ok=%v", a, ok)
	}

	applied, err := d.AppliedSeqs()
	if err != nil {
		t.Fatalf("applied seqs: %v", err)
	}
	if !applied[11][1] || !applied[11][2] {
		t.Fatalf("seq ledger: %+v", applied)
	}
	if len(applied[11]) != 2 {
		t.Fatalf("duplicate seq record must collapse, got %+v", applied[11])
	}
}

func TestCloseRacingWritesDoesNotPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				d.RecordSeq(uint64(w), uint64(i+1))
			}
		}(w)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	wg.Wait()
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Must not panic on a closed channel.
	d.RecordSeq(11, 1)
}
