package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"edusmart/internal/domain/service"

	"github.com/pkg/errors"
)

// ResetTokenBytes is the entropy of a reset value before hex encoding.
const ResetTokenBytes = 20

// resetTokenGenerator mints hex encoded random values and stores their SHA-256 digest.
type resetTokenGenerator struct {
	size int
}

// NewResetTokenGenerator creates the generator used by the password reset flow.
func NewResetTokenGenerator() service.ResetTokenGenerator {
	return &resetTokenGenerator{size: ResetTokenBytes}
}

// Generate returns a value for the user and the digest to persist.
func (g *resetTokenGenerator) Generate() (string, string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to read random bytes")
	}

	plain := hex.EncodeToString(buf)

	return plain, g.Digest(plain), nil
}

// Digest is the one-way form of a reset value.
func (g *resetTokenGenerator) Digest(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return hex.EncodeToString(sum[:])
}
