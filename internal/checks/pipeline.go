package checks

import (
	"time"

	"gridhangar/internal/config"
	"gridhangar/internal/protocol"
	"gridhangar/internal/sim"
)

// Pipeline composes the stages in their fixed order:
//
//	enabled -> world save -> zones -> gravity -> [hangar lookup] ->
//	cooldown -> hostile proximity
//
// The hangar lookup happens in the caller between the two halves, which is
// why admission is split into AdmitLocation and AdmitAccount.
type Pipeline struct {
	cfg      *config.Settings
	engine   sim.Engine
	factions sim.Factions
}

func NewPipeline(cfg *config.Settings, engine sim.Engine, factions sim.Factions) *Pipeline {
	return &Pipeline{cfg: cfg, engine: engine, factions: factions}
}

// AdmitLocation runs the stages that need no hangar state: feature flag,
// world checkpoint, zones, gravity.
func (p *Pipeline) AdmitLocation(req Request) Decision {
	if !p.cfg.Enabled {
		return deny(protocol.ErrDisabled, "Hangar commands are disabled on this server!")
	}
	if p.engine.SaveInProgress() {
		return deny(protocol.ErrWorldSaving, "Server is saving the world. Try again in a moment!")
	}
	if d := CheckZones(p.cfg.Zones, req.Pos, req.Saving); !d.Allowed {
		return d
	}
	if d := CheckGravity(p.cfg.AllowInGravity, p.cfg.MaxGravity, p.engine.NaturalGravity(req.Pos)); !d.Allowed {
		return d
	}
	return allow()
}

// AdmitAccount runs the stages that follow the hangar lookup: cooldown and
// the hostile proximity scan at the spawn position.
func (p *Pipeline) AdmitAccount(req Request, lastSave, now time.Time) Decision {
	cooldown := time.Duration(p.cfg.SaveCooldownSec) * time.Second
	if d := CheckCooldown(cooldown, lastSave, now); !d.Allowed {
		return d
	}
	return CheckHostiles(p.cfg, p.engine, p.factions, req.AccountID, req.SpawnPos, req.Saving)
}
