package domino

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInvalidSetType      Code = "INVALID_SET_TYPE"
	CodeInvalidMultiplicity Code = "INVALID_MULTIPLICITY"
	CodeInvalidCount        Code = "INVALID_COUNT"
	CodeInvalidTileFormat   Code = "INVALID_TILE_FORMAT"
	CodeInvalidPileName     Code = "INVALID_PILE_NAME"

	// State errors
	CodeSetNotFound       Code = "SET_NOT_FOUND"
	CodePileNotFound      Code = "PILE_NOT_FOUND"
	CodeTileNotFound      Code = "TILE_NOT_FOUND"
	CodeDuplicatePileName Code = "DUPLICATE_PILE_NAME"
	CodeInsufficientTiles Code = "INSUFFICIENT_TILES"
	CodeEmptyPile         Code = "EMPTY_PILE"

	// Storage errors
	CodeDuplicateID      Code = "DUPLICATE_ID"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

var (
	// ErrInvalidSetType indicates an unrecognized set type.
	ErrInvalidSetType = errors.New("invalid set type")
	// ErrInvalidMultiplicity indicates a multiplicity outside 1..MaxMultiplicity.
	ErrInvalidMultiplicity = errors.New("invalid multiplicity")
	// ErrInvalidCount indicates a negative draw count.
	ErrInvalidCount = errors.New("invalid count")
	// ErrInvalidTileFormat indicates a malformed tile identifier.
	ErrInvalidTileFormat = errors.New("invalid tile format")
	// ErrInvalidPileName indicates an empty or malformed pile name.
	ErrInvalidPileName = errors.New("invalid pile name")
	// ErrSetNotFound indicates an unknown or expired set identifier.
	ErrSetNotFound = errors.New("set not found")
	// ErrPileNotFound indicates an unknown pile name within a set.
	ErrPileNotFound = errors.New("pile not found")
	// ErrTileNotFound indicates a referenced tile is absent from the record.
	ErrTileNotFound = errors.New("tile not found")
	// ErrDuplicatePileName indicates a pile name already exists in the set.
	ErrDuplicatePileName = errors.New("pile already exists")
	// ErrInsufficientTiles indicates a draw exceeding the remaining boneyard.
	ErrInsufficientTiles = errors.New("insufficient tiles")
	// ErrEmptyPile indicates a draw from a pile with no tiles.
	ErrEmptyPile = errors.New("pile is empty")
)

// CodeOf maps an error to its machine-readable code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSetType):
		return CodeInvalidSetType
	case errors.Is(err, ErrInvalidMultiplicity):
		return CodeInvalidMultiplicity
	case errors.Is(err, ErrInvalidCount):
		return CodeInvalidCount
	case errors.Is(err, ErrInvalidTileFormat):
		return CodeInvalidTileFormat
	case errors.Is(err, ErrInvalidPileName):
		return CodeInvalidPileName
	case errors.Is(err, ErrSetNotFound):
		return CodeSetNotFound
	case errors.Is(err, ErrPileNotFound):
		return CodePileNotFound
	case errors.Is(err, ErrTileNotFound):
		return CodeTileNotFound
	case errors.Is(err, ErrDuplicatePileName):
		return CodeDuplicatePileName
	case errors.Is(err, ErrInsufficientTiles):
		return CodeInsufficientTiles
	case errors.Is(err, ErrEmptyPile):
		return CodeEmptyPile
	default:
		return CodeUnknown
	}
}
