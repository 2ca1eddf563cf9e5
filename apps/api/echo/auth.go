package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

// appJWTConfig is the default JWT auth middleware config. The signing key is
// injected from the app config at server setup.
var appJWTConfig = middleware.JWTConfig{
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "userToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT. Tokens
// are issued by the auth collaborator; this API only verifies them and lifts
// the (subject, role, school) triple into a core.RequestContext.
type Claims struct {
	jwt.StandardClaims
	Role     string `json:"role,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// GetProfileClaims builds the claims the auth collaborator would issue for a
// profile; used by tests and local token minting.
func GetProfileClaims(conf *core.Config, prof account.UserProfile) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   prof.UserID,
			Audience:  "Wazazi",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role:     string(prof.Role),
		SchoolID: prof.SchoolID,
		FullName: prof.FullName,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// requestContext lifts the verified claims into the explicit caller identity
// every service call takes; it never falls back to ambient state.
func requestContext(ctx echo.Context) (core.RequestContext, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.RequestContext{}, err
	}
	return core.RequestContext{
		UserID:   claims.Subject,
		Role:     core.ParseRole(claims.Role),
		SchoolID: claims.SchoolID,
	}, nil
}
