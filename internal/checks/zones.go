package checks

import (
	"fmt"

	"gridhangar/internal/config"
	"gridhangar/internal/protocol"
	"gridhangar/internal/sim"
)

// CheckZones resolves the zone restriction for a position.
//
// Inside a zone the zone's own flag is authoritative and the search stops.
// Outside every zone the operation is denied and the nearest zone whose
// flag permits it is surfaced as a waypoint; a running strict minimum keeps
// the first configured zone on equal distances. No permitting zone at all
// is its own denial. An empty zone list disables the check.
func CheckZones(zones []config.Zone, pos sim.Vec3, saving bool) Decision {
	if len(zones) == 0 {
		return allow()
	}

	closest := -1
	closestDist := 0.0
	for i, z := range zones {
		center := sim.Vec3{X: z.X, Y: z.Y, Z: z.Z}
		d := center.Dist(pos)

		if d <= z.Radius {
			if saving && !z.AllowSave {
				return deny(protocol.ErrZoneDenied,
					fmt.Sprintf("You are not permitted to save grids in %s", z.Name))
			}
			if !saving && !z.AllowLoad {
				return deny(protocol.ErrZoneDenied,
					fmt.Sprintf("You are not permitted to load grids in %s", z.Name))
			}
			return allow()
		}

		permits := z.AllowLoad
		if saving {
			permits = z.AllowSave
		}
		if permits && (closest == -1 || d < closestDist) {
			closest = i
			closestDist = d
		}
	}

	if closest == -1 {
		return deny(protocol.ErrNoZone, "No areas found!")
	}

	z := zones[closest]
	verb := "load"
	if saving {
		verb = "save"
	}
	return Decision{
		Code:   protocol.ErrZoneDenied,
		Reason: fmt.Sprintf("Nearest %s area has been added to your HUD", verb),
		Waypoint: &Waypoint{
			Pos:    sim.Vec3{X: z.X, Y: z.Y, Z: z.Z},
			Label:  fmt.Sprintf("%s (within %.0fm)", z.Name, z.Radius),
			Radius: z.Radius,
		},
	}
}
