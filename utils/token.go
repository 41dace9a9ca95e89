package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// EditGrantScope marks a token that only authorizes editing one invoice.
const EditGrantScope = "invoice_edit"

// EditGrantLifespan is fixed at one hour; the grant is meant to cover a
// single editing session obtained through the OTP challenge.
const EditGrantLifespan = time.Hour

type JwtCustomClaim struct {
	UserId      string `json:"sub"`
	EditInvoice string `json:"edit_invoice,omitempty"`
	Scope       string `json:"scope,omitempty"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "Invoicing-Secret"
	}
	return secret
}

// JwtGenerateEditGrant issues the scoped credential returned by the OTP
// verify step. Authorization must re-validate the claims on every use; the
// token itself is just a signed claim structure.
func JwtGenerateEditGrant(userId string, invoiceId string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		UserId:      userId,
		EditInvoice: invoiceId,
		Scope:       EditGrantScope,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(EditGrantLifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(jwtSecret)
}

func JwtValidate(token string) (*JwtCustomClaim, error) {
	parsed, err := jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
