// Package sim declares the interfaces the hangar core needs from the live
// world: entity queries, gravity, faction relations. The game server plugs
// its engine in here; tests use simtest.
package sim

// SizeClass of a single grid body.
type SizeClass int8

const (
	SizeSmall SizeClass = iota
	SizeLarge
	SizeStatic
)

// CharacterID is an opaque handle to the character issuing a command.
type CharacterID int64

// Structure is a summary of one rigid grid body as the engine reports it.
// A capture may span several connected bodies; Bodies[0] is the main one.
type Structure struct {
	EntityID   int64
	Name       string
	SizeClass  SizeClass
	Pos        Vec3
	BlockCount int
	PCU        int
	Mass       float64

	MaxPowerOutput float64
	BuiltPercent   float64
	JumpDistance   float64

	BigOwners []int64

	BlockTypeCounts map[string]int
	StoredResources map[string]float64
}

// OnlinePlayer is a connected account with a live position.
type OnlinePlayer struct {
	AccountID  int64
	PlatformID uint64
	Pos        Vec3
}

// Engine is the live-world collaborator. All methods are queries except
// Spawn/Remove; implementations decide their own thread-safety, the hangar
// core only ever calls them from its single command queue.
type Engine interface {
	// NaturalGravity returns the natural gravity field vector at pos.
	NaturalGravity(pos Vec3) Vec3

	// SaveInProgress reports whether a world checkpoint is running.
	SaveInProgress() bool

	// Targeted returns the grid group the character is looking at, main
	// body first. Size and ownership preconditions are the engine's;
	// a violation comes back as an error.
	Targeted(char CharacterID) ([]Structure, error)

	// Export serializes the full grid data of the group rooted at entityID.
	Export(entityID int64) ([]byte, error)

	// StructuresInSphere enumerates top-level grid bodies within radius of
	// center.
	StructuresInSphere(center Vec3, radius float64) []Structure

	// OnlinePlayers lists all connected accounts.
	OnlinePlayers() []OnlinePlayer

	// IsAdmin reports whether the platform account has admin promotion.
	IsAdmin(platformID uint64) bool

	// Spawn places a previously exported grid group into the world at pos.
	Spawn(def []byte, pos Vec3) error

	// Remove deletes the grid group rooted at entityID from the world.
	Remove(entityID int64) error
}

// Relation between two factions, from the acting faction's point of view.
type Relation int8

const (
	RelationEnemies Relation = iota
	RelationNeutral
	RelationFriends
)

// Factions is the faction/relationship collaborator.
type Factions interface {
	// FactionOf returns the faction id of an account, or ok=false when the
	// account has none.
	FactionOf(accountID int64) (factionID int64, ok bool)

	// Tag returns the display tag of a faction.
	Tag(factionID int64) string

	// Relation between two factions.
	Relation(a, b int64) Relation
}
