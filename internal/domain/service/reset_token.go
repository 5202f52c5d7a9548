package service

// ResetTokenGenerator mints opaque password reset values.
type ResetTokenGenerator interface {
	// Generate returns a fresh plaintext value for the user and its digest for storage.
	Generate() (plain string, digest string, err error)

	// Digest computes the stored form of a presented plaintext value.
	Digest(plain string) string
}
