package session

import "errors"

var (
	// ErrSecretMismatch is returned when the secret and its confirmation
	// differ during setup or import.
	ErrSecretMismatch = errors.New("secrets do not match")

	// ErrWeakSecret is returned when the secret fails the configured unlock
	// policy (PIN length and digits, or password minimum length).
	ErrWeakSecret = errors.New("secret does not meet the security policy")

	// ErrNoVaultFound is returned by Login when nothing has been persisted
	// yet.
	ErrNoVaultFound = errors.New("no wallet vault found")

	// ErrInvalidSecret is returned when the supplied secret does not
	// decrypt the vault. Wrong secret and corrupted blob are deliberately
	// indistinguishable.
	ErrInvalidSecret = errors.New("invalid secret")

	// ErrNoActiveSession guards every operation that needs the decrypted
	// collection.
	ErrNoActiveSession = errors.New("no active session")

	// ErrDuplicateWallet is returned when an added key resolves to a public
	// key already present in the collection.
	ErrDuplicateWallet = errors.New("wallet already exists")

	// ErrCannotRemoveLastWallet keeps the collection non-empty.
	ErrCannotRemoveLastWallet = errors.New("cannot remove the last wallet")

	// ErrAlreadyInitialized is returned by Initialize and ImportFirst when a
	// vault already exists; ResetVault is the only way back.
	ErrAlreadyInitialized = errors.New("wallet is already initialized")
)
