package checks

import (
	"fmt"

	"gridhangar/internal/protocol"
	"gridhangar/internal/sim"
)

// StandardGravity normalizes a field magnitude into g.
const StandardGravity = 9.81

// CheckGravity enforces the gravity policy for the natural gravity vector
// at the player's position. Gravity disallowed outright means any nonzero
// field denies; otherwise a configured nonzero maximum g-force is enforced.
func CheckGravity(allowInGravity bool, maxGravity float64, field sim.Vec3) Decision {
	if !allowInGravity {
		if !field.IsZero() {
			return deny(protocol.ErrGravity, "Saving and loading in gravity has been disabled!")
		}
		return allow()
	}
	if maxGravity == 0 {
		return allow()
	}
	g := field.Len() / StandardGravity
	if g > maxGravity {
		return deny(protocol.ErrGravity,
			fmt.Sprintf("You are not permitted to save or load in this gravity. Max amount: %.2fg", maxGravity))
	}
	return allow()
}
