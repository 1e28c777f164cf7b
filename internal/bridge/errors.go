package bridge

import "errors"

// Validation errors. Every instruction failure is terminal: retrying the
// same instruction yields the same error, and a failed instruction leaves
// the store untouched. Callers classify with errors.Is.
var (
	ErrAlreadyExists              = errors.New("account already exists")
	ErrInvalidDerivedAccount      = errors.New("account does not match its derived address")
	ErrUninitializedState         = errors.New("account is not initialized")
	ErrInvalidAccountData         = errors.New("account data has wrong size")
	ErrTokenMintMismatch          = errors.New("token account holds a different mint")
	ErrWrongMintOwner             = errors.New("wrong mint authority")
	ErrWrongTokenAccountOwner     = errors.New("wrong token account owner")
	ErrOldGuardianSet             = errors.New("rotation not signed by the active guardian set")
	ErrGuardianIndexNotIncreasing = errors.New("guardian set index must increase by one")
	ErrGuardianSetExpired         = errors.New("guardian set expired")
	ErrVAAExpired                 = errors.New("vaa past its grace window")
	ErrInvalidVAASignature        = errors.New("invalid vaa signature")
	ErrInvalidVAAAction           = errors.New("unsupported vaa action")
	ErrVAAClaimed                 = errors.New("vaa already claimed")
	ErrInvalidProgramAddress      = errors.New("invalid program address derivation")
	ErrParseFailed                = errors.New("parse failed")
)
