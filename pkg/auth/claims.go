package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the signed claim-set carried by access tokens. The subject is
// the account email.
type Claims struct {
	jwt.RegisteredClaims
}
