// Password hashing for package auth.
//
// bcrypt is slow on purpose and salts every digest. The output embeds the
// version, the cost and the salt, so nothing besides the digest is stored:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on your production hardware.
// Too low → easy to crack. Too high → login is sluggish and the server
// spends all its time on bcrypt during traffic spikes.
const DefaultCost = 12

// maxPasswordBytes is a bcrypt limit: longer inputs are rejected by the library.
const maxPasswordBytes = 72

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected:
// tests use bcrypt.MinCost (4), production uses DefaultCost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Costs outside [bcrypt.MinCost, bcrypt.MaxCost] are rejected.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewPasswordServiceForTest creates a PasswordService with bcrypt.MinCost.
// Use this in tests in other packages to avoid the ~250ms overhead of
// DefaultCost per hashing operation. Never use it in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Store the result directly in the database; bcrypt.CompareHashAndPassword
// knows how to decode it. Passwords longer than 72 bytes are rejected.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored bcrypt digest.
//
// A wrong password, an empty digest and a malformed digest all return false.
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(digest, plaintext string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
