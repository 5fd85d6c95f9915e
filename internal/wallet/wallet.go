// internal/wallet/wallet.go

// Package wallet holds the local signing identity the gateway connects with.
// Keys are ed25519; the public key is hashed with legacy keccak256 to derive
// the same 0x-prefixed address form the ledger uses.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"

	"github.com/orangejack/orangejack/internal/ledger"
)

// Wallet wraps a private key and its derived address.
type Wallet struct {
	priv    ed25519.PrivateKey
	address string
}

// New builds a wallet around an existing private key.
func New(priv ed25519.PrivateKey) *Wallet {
	return &Wallet{
		priv:    priv,
		address: DeriveAddress(priv.Public().(ed25519.PublicKey)),
	}
}

// Generate creates a fresh random wallet.
func Generate() (*Wallet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return New(priv), nil
}

// Load reads a hex-encoded ed25519 seed from path. A missing keyfile means
// there is no signing provider, which is a connection-class failure for any
// mutating action.
func Load(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ledger.E(ledger.KindConnection, "wallet.load",
				fmt.Sprintf("no keyfile at %s", path))
		}
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode keyfile %s: %w", path, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keyfile %s: want %d-byte seed, got %d", path, ed25519.SeedSize, len(seed))
	}
	return New(ed25519.NewKeyFromSeed(seed)), nil
}

// LoadOrCreate loads the keyfile at path, generating and persisting a new
// one on first run.
func LoadOrCreate(path string) (*Wallet, error) {
	w, err := Load(path)
	if err == nil {
		return w, nil
	}
	if !ledger.IsKind(err, ledger.KindConnection) {
		return nil, err
	}
	w, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	seed := hex.EncodeToString(w.priv.Seed())
	if err := os.WriteFile(path, []byte(seed+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write keyfile: %w", err)
	}
	return w, nil
}

// Address returns the wallet's 0x-prefixed address.
func (w *Wallet) Address() string { return w.address }

// SessionToken signs an EdDSA JWT proving control of the address. The token
// is presented once on the gateway handshake; ttl of 0 means no expiry.
func (w *Wallet) SessionToken(ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": w.address,
		"iat": time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(w.priv)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// DeriveAddress hashes a public key with legacy keccak256 and keeps the last
// 20 bytes, hex-encoded with a 0x prefix.
func DeriveAddress(pub ed25519.PublicKey) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(pub)
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:])
}

// ValidAddress reports whether s looks like a ledger address.
func ValidAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}
