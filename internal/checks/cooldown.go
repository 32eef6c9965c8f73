package checks

import (
	"fmt"
	"time"

	"gridhangar/internal/protocol"
)

// CheckCooldown denies while the elapsed time since the account's last save
// is below the configured threshold. A zero lastSave means the account has
// never saved and always passes.
func CheckCooldown(cooldown time.Duration, lastSave, now time.Time) Decision {
	if cooldown <= 0 || lastSave.IsZero() {
		return allow()
	}
	elapsed := now.Sub(lastSave)
	if elapsed >= cooldown {
		return allow()
	}
	remaining := (cooldown - elapsed).Round(time.Second)
	return deny(protocol.ErrCooldown,
		fmt.Sprintf("Please wait %s before saving or loading another grid", remaining))
}
