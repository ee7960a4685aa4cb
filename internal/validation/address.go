// internal/validation/address.go
package validation

import (
	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

// IsValidAddress reports whether s is a base58 32-byte public key that lies on the ed25519 curve.
// Program-derived (off-curve) addresses are rejected.
func IsValidAddress(s string) bool {
	if s == "" {
		return false
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return false
	}
	return isOnCurve(pk)
}

func isOnCurve(pk solana.PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}
