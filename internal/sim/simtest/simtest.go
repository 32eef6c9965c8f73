// Package simtest provides in-memory Engine and Factions fakes for tests.
package simtest

import (
	"errors"

	"gridhangar/internal/sim"
)

// Engine is a scriptable in-memory world.
type Engine struct {
	Gravity map[sim.Vec3]sim.Vec3
	Saving  bool

	// TargetedBodies is returned by Targeted; TargetedErr wins when set.
	TargetedBodies []sim.Structure
	TargetedErr    error

	Exports map[int64][]byte

	Structures []sim.Structure
	Players    []sim.OnlinePlayer
	Admins     map[uint64]bool

	Spawned []SpawnCall
	Removed []int64

	SpawnErr error
}

type SpawnCall struct {
	Def []byte
	Pos sim.Vec3
}

func NewEngine() *Engine {
	return &Engine{
		Gravity: map[sim.Vec3]sim.Vec3{},
		Exports: map[int64][]byte{},
		Admins:  map[uint64]bool{},
	}
}

func (e *Engine) NaturalGravity(pos sim.Vec3) sim.Vec3 { return e.Gravity[pos] }
func (e *Engine) SaveInProgress() bool                 { return e.Saving }

func (e *Engine) Targeted(char sim.CharacterID) ([]sim.Structure, error) {
	if e.TargetedErr != nil {
		return nil, e.TargetedErr
	}
	return e.TargetedBodies, nil
}

func (e *Engine) Export(entityID int64) ([]byte, error) {
	b, ok := e.Exports[entityID]
	if !ok {
		return nil, errors.New("unknown entity")
	}
	return b, nil
}

func (e *Engine) StructuresInSphere(center sim.Vec3, radius float64) []sim.Structure {
	var out []sim.Structure
	for _, s := range e.Structures {
		if s.Pos.Dist(center) <= radius {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) OnlinePlayers() []sim.OnlinePlayer { return e.Players }
func (e *Engine) IsAdmin(platformID uint64) bool    { return e.Admins[platformID] }

func (e *Engine) Spawn(def []byte, pos sim.Vec3) error {
	if e.SpawnErr != nil {
		return e.SpawnErr
	}
	e.Spawned = append(e.Spawned, SpawnCall{Def: def, Pos: pos})
	return nil
}

func (e *Engine) Remove(entityID int64) error {
	e.Removed = append(e.Removed, entityID)
	return nil
}

// Factions is a static faction table.
type Factions struct {
	Members   map[int64]int64 // account -> faction
	Tags      map[int64]string
	Relations map[[2]int64]sim.Relation
}

func NewFactions() *Factions {
	return &Factions{
		Members:   map[int64]int64{},
		Tags:      map[int64]string{},
		Relations: map[[2]int64]sim.Relation{},
	}
}

func (f *Factions) FactionOf(accountID int64) (int64, bool) {
	id, ok := f.Members[accountID]
	return id, ok
}

func (f *Factions) Tag(factionID int64) string { return f.Tags[factionID] }

func (f *Factions) Relation(a, b int64) sim.Relation {
	if r, ok := f.Relations[[2]int64{a, b}]; ok {
		return r
	}
	if r, ok := f.Relations[[2]int64{b, a}]; ok {
		return r
	}
	return sim.RelationEnemies
}

// SetRelation records a symmetric relation.
func (f *Factions) SetRelation(a, b int64, r sim.Relation) {
	f.Relations[[2]int64{a, b}] = r
}
