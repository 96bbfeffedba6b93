package registry

import (
	"encoding/base32"
	"fmt"
	"math/big"
	"strings"
)

// CIDs use the lowercase RFC 4648 alphabet without padding.
var cidBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// PieceCIDToBytes decodes a CIDv1 string to its raw bytes for on-chain
// storage. Piece CIDs come from the storage network in multibase base32
// (prefix 'b').
func PieceCIDToBytes(cid string) ([]byte, error) {
	if len(cid) < 2 {
		return nil, fmt.Errorf("cid too short: %q", cid)
	}
	if cid[0] != 'b' {
		return nil, fmt.Errorf("unsupported multibase prefix %q in cid %q", cid[0], cid)
	}

	raw, err := cidBase32.DecodeString(strings.ToUpper(cid[1:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cid %q: %w", cid, err)
	}
	return raw, nil
}

// ParseFIL converts a decimal FIL amount ("0.01") to attoFIL.
func ParseFIL(s string) (*big.Int, error) {
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 18 {
		return nil, fmt.Errorf("amount %q has more than 18 decimal places", s)
	}
	fracPart += strings.Repeat("0", 18-len(fracPart))

	v, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// FormatFIL renders attoFIL as a decimal string with trailing zeros
// trimmed.
func FormatFIL(amount *big.Int) string {
	s := amount.String()
	if len(s) <= 18 {
		s = strings.Repeat("0", 18-len(s)+1) + s
	}
	intPart := s[:len(s)-18]
	fracPart := strings.TrimRight(s[len(s)-18:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}
