// Package checks is the admission pipeline for hangar saves and loads: a
// fixed chain of predicates that short-circuits on the first failure. Every
// stage is a pure function over the settings snapshot and the request, so
// the properties are unit-testable without a chat collaborator; message
// rendering stays with the caller.
package checks

import "gridhangar/internal/sim"

// Waypoint is a HUD marker attached to a denial, pointing the player at the
// nearest zone that would permit the operation.
type Waypoint struct {
	Pos    sim.Vec3
	Label  string
	Radius float64
}

// Decision is the structured outcome of one stage: allow, deny with a
// stage-specific reason, or deny with a navigation waypoint.
type Decision struct {
	Allowed  bool
	Code     string // protocol.Err* when denied
	Reason   string // user-facing wording, unique per stage
	Waypoint *Waypoint
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Request is the immutable per-command snapshot the pipeline evaluates.
// Captured once at command receipt and never refreshed mid-command.
type Request struct {
	AccountID  int64
	PlatformID uint64

	// Pos is the player's position at command time. Zone and gravity
	// checks always run here.
	Pos sim.Vec3

	// SpawnPos is where the grid would materialize. The hostile scan runs
	// here for loads; for saves it equals Pos.
	SpawnPos sim.Vec3

	Saving bool
}
