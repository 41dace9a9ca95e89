package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"math/big"
)

// GenerateShareToken returns a 32-byte URL-safe token. The space is large
// enough that collisions are negligible; the unique index on the column is
// the last line of defense.
func GenerateShareToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateOtp returns n cryptographically random decimal digits.
func GenerateOtp(n int) string {
	code := make([]byte, n)
	for i := range code {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err)
		}
		code[i] = byte('0' + d.Int64())
	}
	return string(code)
}

// RandomHex returns n random bytes hex-encoded; used for record ids like
// "inv_<hex>" carried over from the legacy system.
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
