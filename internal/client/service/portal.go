package service

import (
	"crypto/rand"
	"math/big"
)

const (
	portalAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	portalCodeLength = 8
)

// GeneratePortalCode returns a client portal access code. The alphabet leaves
// out I, O, 0 and 1.
func GeneratePortalCode() (string, error) {
	size := big.NewInt(int64(len(portalAlphabet)))
	code := make([]byte, portalCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		code[i] = portalAlphabet[n.Int64()]
	}
	return string(code), nil
}
