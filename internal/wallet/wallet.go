// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is a local Solana keypair.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// NewWallet creates a wallet from a base58-encoded 64-byte private key.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(strings.TrimSpace(privateKeyBase58))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return fromPrivateKey(solana.PrivateKey(privateKeyBytes)), nil
}

func fromPrivateKey(key solana.PrivateKey) *Wallet {
	return &Wallet{
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
	}
}

// LoadKeypair reads a keypair file written by solana-keygen (a JSON byte array)
// or a file holding a single base58 private key.
func LoadKeypair(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse keypair file: %w", err)
		}
		return fromPrivateKey(key), nil
	}
	return NewWallet(string(data))
}

// SignTransaction signs tx with the wallet key.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

func (w *Wallet) String() string {
	return w.PublicKey.String()
}
