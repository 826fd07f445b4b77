package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Verifier checks HS256 bearer tokens whose "sub" claim carries the user id,
// either as a JSON number or a decimal string. "exp" is enforced when present.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithJSONNumber(),
		),
	}
}

// Verify returns the user id bound to token.
func (v *Verifier) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var id int64
	switch sub := claims["sub"].(type) {
	case json.Number:
		id, err = sub.Int64()
	case string:
		id, err = strconv.ParseInt(sub, 10, 64)
	default:
		err = errors.New("missing sub claim")
	}
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
