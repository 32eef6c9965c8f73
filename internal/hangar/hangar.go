// Package hangar holds the per-account saved grid collection and its
// inventory quotas. All mutation happens on the command queue; the types
// here carry no locking of their own.
package hangar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gridhangar/internal/config"
	"gridhangar/internal/sim"
)

// ErrNotFound is returned when an index or name does not resolve to a stamp.
var ErrNotFound = errors.New("no grid with that index or name")

// QuotaError is a rejected insert. The store is left untouched.
type QuotaError struct {
	Kind  string // "slots", "small", "large", "static", "blocks", "pcu"
	Limit int
	Have  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("hangar %s quota exceeded: %d of %d", e.Kind, e.Have, e.Limit)
}

// GridStamp is the persisted descriptive snapshot of a saved grid group.
// Immutable once saved except for the explicit for-sale fields.
type GridStamp struct {
	GridID   int64
	GridName string
	GridPCU  int

	ForSale     bool
	MarketValue float64
	ListingID   string

	SellerFaction string

	GridMass     float64
	BuiltPercent float64
	JumpDistance float64

	SmallGrids    int
	LargeGrids    int
	StaticGrids   int
	NumberOfGrids int
	NumberOfBlocks int

	MaxPowerOutput float64

	BlockTypeCounts map[string]int
	StoredResources map[string]float64

	SavePos sim.Vec3
	SavedAt time.Time
}

// TimeStamp records the account's last successful save.
type TimeStamp struct {
	AccountID int64
	LastSave  time.Time
}

// PlayerHangar is the per-account aggregate: ordered stamps plus the
// cooldown timer. Insertion order is display order.
type PlayerHangar struct {
	AccountID int64
	Stamps    []GridStamp
	Timer     TimeStamp
}

// New returns an empty hangar for the account.
func New(accountID int64) *PlayerHangar {
	return &PlayerHangar{AccountID: accountID, Timer: TimeStamp{AccountID: accountID}}
}

// CheckSlots reports whether one more stamp would fit the slot quota.
func (h *PlayerHangar) CheckSlots(l config.Limits) error {
	if l.MaxSlots > 0 && len(h.Stamps) >= l.MaxSlots {
		return &QuotaError{Kind: "slots", Limit: l.MaxSlots, Have: len(h.Stamps)}
	}
	return nil
}

// CheckStamp runs the extensive quota checks for an incoming stamp:
// per-size-class grid counts, aggregate blocks and aggregate PCU across the
// whole hangar including the candidate.
func (h *PlayerHangar) CheckStamp(s GridStamp, l config.Limits) error {
	small, large, static := s.SmallGrids, s.LargeGrids, s.StaticGrids
	blocks, pcu := s.NumberOfBlocks, s.GridPCU
	for _, g := range h.Stamps {
		small += g.SmallGrids
		large += g.LargeGrids
		static += g.StaticGrids
		blocks += g.NumberOfBlocks
		pcu += g.GridPCU
	}
	switch {
	case l.MaxSmallGrids > 0 && small > l.MaxSmallGrids:
		return &QuotaError{Kind: "small", Limit: l.MaxSmallGrids, Have: small}
	case l.MaxLargeGrids > 0 && large > l.MaxLargeGrids:
		return &QuotaError{Kind: "large", Limit: l.MaxLargeGrids, Have: large}
	case l.MaxStaticGrids > 0 && static > l.MaxStaticGrids:
		return &QuotaError{Kind: "static", Limit: l.MaxStaticGrids, Have: static}
	case l.MaxBlocks > 0 && blocks > l.MaxBlocks:
		return &QuotaError{Kind: "blocks", Limit: l.MaxBlocks, Have: blocks}
	case l.MaxPCU > 0 && pcu > l.MaxPCU:
		return &QuotaError{Kind: "pcu", Limit: l.MaxPCU, Have: pcu}
	}
	return nil
}

// Add appends the stamp after re-running every quota check. A rejected
// insert leaves the hangar unchanged. Add never touches the cooldown timer;
// that is the caller's move after a committed save.
func (h *PlayerHangar) Add(s GridStamp, l config.Limits) error {
	if err := h.CheckSlots(l); err != nil {
		return err
	}
	if err := h.CheckStamp(s, l); err != nil {
		return err
	}
	h.Stamps = append(h.Stamps, s)
	return nil
}

// Resolve turns a user-supplied id into a stamp index. A number is a
// 1-based display index; anything else matches by exact grid name.
func (h *PlayerHangar) Resolve(id string) (int, error) {
	id = strings.TrimSpace(id)
	if n, err := strconv.Atoi(id); err == nil {
		if n < 1 || n > len(h.Stamps) {
			return 0, ErrNotFound
		}
		return n - 1, nil
	}
	for i, s := range h.Stamps {
		if s.GridName == id {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// RemoveAt deletes the stamp at index i, preserving display order.
func (h *PlayerHangar) RemoveAt(i int) (GridStamp, error) {
	if i < 0 || i >= len(h.Stamps) {
		return GridStamp{}, ErrNotFound
	}
	s := h.Stamps[i]
	h.Stamps = append(h.Stamps[:i], h.Stamps[i+1:]...)
	return s, nil
}

// MarkForSale flips the only post-save mutable fields on a stamp. The
// listing id ties the stamp to its market entry; grid names are unique only
// within one hangar, so the id is the sole reliable delist key.
func (h *PlayerHangar) MarkForSale(i int, value float64, listingID string) error {
	if i < 0 || i >= len(h.Stamps) {
		return ErrNotFound
	}
	h.Stamps[i].ForSale = true
	h.Stamps[i].MarketValue = value
	h.Stamps[i].ListingID = listingID
	return nil
}

// UniqueName returns name, or name [2], name [3], ... until it collides
// with no stamp already in the hangar.
func (h *PlayerHangar) UniqueName(name string) string {
	if name == "" {
		name = "Grid"
	}
	taken := make(map[string]bool, len(h.Stamps))
	for _, s := range h.Stamps {
		taken[s.GridName] = true
	}
	if !taken[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s [%d]", name, n)
		if !taken[candidate] {
			return candidate
		}
	}
}
