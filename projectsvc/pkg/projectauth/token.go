package projectauth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/twinj/uuid"
)

type AccessToken struct {
	UUID string
	Hash string
}

// Tokenizer issues access tokens in the format the login service uses, so the
// service can be exercised without it.
type Tokenizer interface {
	Generate(userID uint64) (*AccessToken, error)
}

type tokenizer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenizer(secret []byte, expiry time.Duration) Tokenizer {
	return &tokenizer{secret: secret, expiry: expiry}
}

var uuidV4 = uuid.NewV4

func (t *tokenizer) Generate(userID uint64) (*AccessToken, error) {
	id := uuidV4().String()
	expiry := time.Now().Add(t.expiry).Unix()

	claims := jwt.MapClaims{
		"uuid":    id,
		"user_id": userID,
		"exp":     expiry,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hash, err := token.SignedString(t.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{id, hash}, nil
}

func AccessTokenExpiry() time.Duration {
	return time.Minute * 30
}
