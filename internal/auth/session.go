package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

// Sessions issues wallet-bound JWTs after a signed-nonce challenge.
type Sessions struct {
	secret []byte
}

func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret)}
}

// NewNonce returns a fresh random challenge for the given address.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ChallengeMessage is the exact text the wallet signs. Including the
// address binds the signature to the claimed identity.
func ChallengeMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to Base0\n\nAddress: %s\nNonce: %s", address, nonce)
}

// VerifySignature recovers the signer of an EIP-191 personal_sign
// signature over message and checks it matches the claimed address.
func VerifySignature(address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	// Wallets return V as 27/28; go-ethereum expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	digest := crypto.Keccak256([]byte(prefixed))

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(address) {
		return fmt.Errorf("signature does not match address %s", address)
	}
	return nil
}

// IssueToken mints a session JWT with the wallet address as subject.
func (s *Sessions) IssueToken(address string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": common.HexToAddress(address).Hex(),
		"iat": now.Unix(),
		"exp": now.Add(sessionTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// VerifyToken validates a session JWT and returns the wallet address.
func (s *Sessions) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid session token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("missing wallet address in token")
	}
	return sub, nil
}

// NormalizeAddress returns the checksummed form of a wallet address.
func NormalizeAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("invalid wallet address %q", address)
	}
	return common.HexToAddress(trimmed).Hex(), nil
}
