// Package grids turns the structure a player is targeting into a GridStamp
// plus a serialized definition blob. Pure read + transform; nothing here
// touches world state.
package grids

import (
	"errors"
	"fmt"
	"time"

	"gridhangar/internal/hangar"
	"gridhangar/internal/sim"
)

// ErrNoTarget is returned when the character is not looking at a valid grid.
var ErrNoTarget = errors.New("no valid grid targeted")

// PreconditionError is a size/ownership violation the engine reported for
// the targeted grid. User-facing.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// Capture is the raw result of reading a targeted grid group out of the
// world: the body summaries plus the engine's serialized definition.
type Capture struct {
	Bodies []sim.Structure
	Blob   []byte
}

// CaptureTargeted reads the grid group the character is looking at and
// serializes it. Size and ownership preconditions stay with the engine; an
// engine refusal comes back as a PreconditionError carrying its wording.
func CaptureTargeted(engine sim.Engine, char sim.CharacterID) (*Capture, error) {
	bodies, err := engine.Targeted(char)
	if err != nil {
		return nil, &PreconditionError{Reason: err.Error()}
	}
	if len(bodies) == 0 {
		return nil, ErrNoTarget
	}
	blob, err := engine.Export(bodies[0].EntityID)
	if err != nil {
		return nil, fmt.Errorf("export grid %d: %w", bodies[0].EntityID, err)
	}
	return &Capture{Bodies: bodies, Blob: blob}, nil
}

// BuildStamp aggregates the capture into the persisted stamp: per-size-class
// grid counts, block and PCU totals, mass, peak power, block-weighted built
// percentage, the largest jump distance in the group, and the merged block
// census and stored resources.
func BuildStamp(c *Capture, sellerFaction string, savedAt time.Time) hangar.GridStamp {
	main := c.Bodies[0]
	s := hangar.GridStamp{
		GridID:        main.EntityID,
		GridName:      main.Name,
		SellerFaction: sellerFaction,
		NumberOfGrids: len(c.Bodies),
		SavePos:       main.Pos,
		SavedAt:       savedAt,

		BlockTypeCounts: map[string]int{},
		StoredResources: map[string]float64{},
	}
	if s.SellerFaction == "" {
		s.SellerFaction = "N/A"
	}

	var weightedBuilt float64
	for _, b := range c.Bodies {
		switch b.SizeClass {
		case sim.SizeSmall:
			s.SmallGrids++
		case sim.SizeLarge:
			s.LargeGrids++
		case sim.SizeStatic:
			s.StaticGrids++
		}
		s.NumberOfBlocks += b.BlockCount
		s.GridPCU += b.PCU
		s.GridMass += b.Mass
		s.MaxPowerOutput += b.MaxPowerOutput
		weightedBuilt += b.BuiltPercent * float64(b.BlockCount)
		if b.JumpDistance > s.JumpDistance {
			s.JumpDistance = b.JumpDistance
		}
		for t, n := range b.BlockTypeCounts {
			s.BlockTypeCounts[t] += n
		}
		for r, q := range b.StoredResources {
			s.StoredResources[r] += q
		}
	}
	if s.NumberOfBlocks > 0 {
		s.BuiltPercent = weightedBuilt / float64(s.NumberOfBlocks)
	}
	return s
}
