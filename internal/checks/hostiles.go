package checks

import (
	"fmt"

	"gridhangar/internal/config"
	"gridhangar/internal/protocol"
	"gridhangar/internal/sim"
)

// CheckHostiles runs the two-part hostile proximity scan at pos. The cheap
// player-distance pass goes first; the spatial grid query only runs when the
// first pass found nothing and both grid thresholds are configured. Either
// pass alone is sufficient to deny.
func CheckHostiles(cfg *config.Settings, engine sim.Engine, factions sim.Factions, accountID int64, pos sim.Vec3, saving bool) Decision {
	verb := "load"
	if saving {
		verb = "save"
	}

	actingFaction, actingHasFaction := factions.FactionOf(accountID)

	if cfg.PlayerDistance > 0 {
		for _, p := range engine.OnlinePlayers() {
			if p.AccountID == accountID || engine.IsAdmin(p.PlatformID) {
				continue
			}
			if actingHasFaction {
				if other, ok := factions.FactionOf(p.AccountID); ok {
					if other == actingFaction {
						continue
					}
					// Neutral counts as non-hostile here, same as friends.
					rel := factions.Relation(actingFaction, other)
					if rel == sim.RelationNeutral || rel == sim.RelationFriends {
						continue
					}
				}
			}
			d := pos.Dist(p.Pos)
			if d == 0 {
				// Coincident position (shared login pad) is not hostile.
				continue
			}
			if d <= cfg.PlayerDistance {
				return deny(protocol.ErrHostile,
					fmt.Sprintf("Unable to %s grid! Enemy within %.0fm!", verb, cfg.PlayerDistance))
			}
		}
	}

	if cfg.GridDistance > 0 && cfg.GridMinBlocks > 0 {
		for _, g := range engine.StructuresInSphere(pos, cfg.GridDistance) {
			if len(g.BigOwners) == 0 || g.BlockCount < cfg.GridMinBlocks {
				continue
			}
			if ownedBy(g, accountID) {
				continue
			}
			// Owned by others: every big owner must be a verifiable ally.
			// Unknown faction affiliation counts as hostile, not neutral.
			ally := true
			for _, owner := range g.BigOwners {
				ownerFaction, ok := factions.FactionOf(owner)
				if !ok || !actingHasFaction {
					ally = false
					break
				}
				if ownerFaction == actingFaction {
					continue
				}
				if factions.Relation(actingFaction, ownerFaction) == sim.RelationEnemies {
					ally = false
					break
				}
			}
			if !ally {
				return deny(protocol.ErrHostile,
					fmt.Sprintf("Unable to %s grid! Enemy within %.0fm!", verb, cfg.GridDistance))
			}
		}
	}

	return allow()
}

func ownedBy(g sim.Structure, accountID int64) bool {
	for _, o := range g.BigOwners {
		if o == accountID {
			return true
		}
	}
	return false
}
