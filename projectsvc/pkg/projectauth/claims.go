package projectauth

import (
	"context"
	"fmt"
	"strconv"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/ichigozero/projectkit/projectsvc"
)

// Claims reads the caller identity from the access token claims that the
// go-kit JWT parser stored in ctx.
func Claims(ctx context.Context) (projectsvc.Auth, error) {
	claims, ok := ctx.Value(kitjwt.JWTClaimsContextKey).(stdjwt.MapClaims)
	if !ok {
		return projectsvc.Auth{}, projectsvc.ErrClaimsMissing
	}

	uuid, ok := claims["uuid"].(string)
	if !ok || uuid == "" {
		return projectsvc.Auth{}, projectsvc.ErrClaimsInvalid
	}

	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", claims["user_id"]), 10, 64)
	if err != nil || userID == 0 {
		return projectsvc.Auth{}, projectsvc.ErrClaimsInvalid
	}

	return projectsvc.Auth{AccessUUID: uuid, UserID: userID}, nil
}

// NewParser wraps an endpoint with HS256 access token verification.
func NewParser(secret []byte) endpoint.Middleware {
	kf := func(token *stdjwt.Token) (interface{}, error) {
		return secret, nil
	}
	return kitjwt.NewParser(kf, stdjwt.SigningMethodHS256, kitjwt.MapClaimsFactory)
}
