package utils

import "golang.org/x/crypto/bcrypt"

// One-time codes are never stored in clear text; only the bcrypt hash goes
// into the code store.

func HashCode(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func CompareCode(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}
