package hangar

import (
	"errors"
	"reflect"
	"testing"

	"gridhangar/internal/config"
)

func stamp(id int64, name string, blocks, pcu int) GridStamp {
	return GridStamp{
		GridID:         id,
		GridName:       name,
		GridPCU:        pcu,
		NumberOfBlocks: blocks,
		LargeGrids:     1,
		NumberOfGrids:  1,
	}
}

func TestAdd_SlotQuota(t *testing.T) {
	h := New(1)
	l := config.Limits{MaxSlots: 2}

	if err := h.Add(stamp(1, "A", 10, 10), l); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := h.Add(stamp(2, "B", 10, 10), l); err != nil {
		t.Fatalf("second add: %v", err)
	}
	err := h.Add(stamp(3, "C", 10, 10), l)
	var q *QuotaError
	if !errors.As(err, &q) || q.Kind != "slots" {
		t.Fatalf("expected slots quota error, got %v", err)
	}
	if len(h.Stamps) != 2 {
		t.Fatalf("rejected insert must not change the store, have %d stamps", len(h.Stamps))
	}
}

func TestAdd_AggregateQuotasAndUnchangedOnReject(t *testing.T) {
	h := New(1)
	l := config.Limits{MaxBlocks: 100, MaxPCU: 1000}

	if err := h.Add(stamp(1, "A", 60, 500), l); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := make([]GridStamp, len(h.Stamps))
	copy(before, h.Stamps)

	err := h.Add(stamp(2, "B", 50, 100), l)
	var q *QuotaError
	if !errors.As(err, &q) || q.Kind != "blocks" {
		t.Fatalf("expected blocks quota error, got %v", err)
	}
	if !reflect.DeepEqual(before, h.Stamps) {
		t.Fatalf("rejected insert mutated the store")
	}

	err = h.Add(stamp(3, "C", 10, 600), l)
	if !errors.As(err, &q) || q.Kind != "pcu" {
		t.Fatalf("expected pcu quota error, got %v", err)
	}
}

func TestAdd_SizeClassQuotas(t *testing.T) {
	h := New(1)
	l := config.Limits{MaxStaticGrids: 1}

	s := GridStamp{GridID: 1, GridName: "Base", StaticGrids: 1, NumberOfGrids: 1}
	if err := h.Add(s, l); err != nil {
		t.Fatalf("add: %v", err)
	}
	s2 := GridStamp{GridID: 2, GridName: "Base 2", StaticGrids: 1, NumberOfGrids: 1}
	err := h.Add(s2, l)
	var q *QuotaError
	if !errors.As(err, &q) || q.Kind != "static" {
		t.Fatalf("expected static quota error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	h := New(1)
	l := config.Limits{}
	_ = h.Add(stamp(1, "Miner", 10, 10), l)
	_ = h.Add(stamp(2, "Hauler", 10, 10), l)

	if i, err := h.Resolve("2"); err != nil || i != 1 {
		t.Fatalf("index resolve: i=%d err=%v", i, err)
	}
	if i, err := h.Resolve("Miner"); err != nil || i != 0 {
		t.Fatalf("name resolve: i=%d err=%v", i, err)
	}
	if _, err := h.Resolve("0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("index 0 is out of bounds, got %v", err)
	}
	if _, err := h.Resolve("3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("index 3 is out of bounds, got %v", err)
	}
	if _, err := h.Resolve("Ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown name, got %v", err)
	}
}

func TestRemoveAt_PreservesOrder(t *testing.T) {
	h := New(1)
	l := config.Limits{}
	_ = h.Add(stamp(1, "A", 1, 1), l)
	_ = h.Add(stamp(2, "B", 1, 1), l)
	_ = h.Add(stamp(3, "C", 1, 1), l)

	s, err := h.RemoveAt(1)
	if err != nil || s.GridName != "B" {
		t.Fatalf("remove: %v %v", s.GridName, err)
	}
	if h.Stamps[0].GridName != "A" || h.Stamps[1].GridName != "C" {
		t.Fatalf("order broken: %+v", h.Stamps)
	}
	if _, err := h.RemoveAt(2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("out of bounds remove, got %v", err)
	}
}

func TestUniqueName(t *testing.T) {
	h := New(1)
	l := config.Limits{}
	_ = h.Add(stamp(1, "Miner", 1, 1), l)
	_ = h.Add(stamp(2, "Miner [2]", 1, 1), l)

	if got := h.UniqueName("Miner"); got != "Miner [3]" {
		t.Fatalf("unique name: got %q", got)
	}
	if got := h.UniqueName("Hauler"); got != "Hauler" {
		t.Fatalf("free name should pass through, got %q", got)
	}
	if got := h.UniqueName(""); got != "Grid" {
		t.Fatalf("empty name defaults, got %q", got)
	}
}
