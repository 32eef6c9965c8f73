package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoTagPayload = "E_PROTO_TAG_PAYLOAD"

	// Admission pipeline.
	ErrDisabled    = "E_DISABLED"
	ErrWorldSaving = "E_WORLD_SAVING"
	ErrZoneDenied  = "E_ZONE_DENIED"
	ErrNoZone      = "E_NO_ZONE"
	ErrGravity     = "E_GRAVITY"
	ErrCooldown    = "E_COOLDOWN"
	ErrHostile     = "E_HOSTILE"

	// Hangar/market operations.
	ErrQuota    = "E_QUOTA"
	ErrNotFound = "E_NOT_FOUND"
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoTagPayload: {},
	ErrDisabled:        {},
	ErrWorldSaving:     {},
	ErrZoneDenied:      {},
	ErrNoZone:          {},
	ErrGravity:         {},
	ErrCooldown:        {},
	ErrHostile:         {},
	ErrQuota:           {},
	ErrNotFound:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
