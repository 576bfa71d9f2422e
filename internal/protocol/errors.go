package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Mutation layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrOutOfBounds  = "E_OUT_OF_BOUNDS"
	ErrOccupied     = "E_OCCUPIED"
	ErrNoBuilding   = "E_NO_BUILDING"
	ErrUnknownDef   = "E_UNKNOWN_DEF"
	ErrNoEdge       = "E_NO_EDGE"
	ErrNotOwner     = "E_NOT_OWNER"
	ErrConflict     = "E_CONFLICT"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrOutOfBounds:     {},
	ErrOccupied:        {},
	ErrNoBuilding:      {},
	ErrUnknownDef:      {},
	ErrNoEdge:          {},
	ErrNotOwner:        {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
