// Package auth implements credential handling and JWT-based request
// authentication: bcrypt password hashing, HS256 bearer token issuance and
// verification, and the middleware protecting the note routes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/notesvc/internal/logger"
	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

type userFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
}

// Auth issues and verifies bearer tokens and hashes passwords.
type Auth struct {
	// db is the interface to the user data storage.
	db userFinder

	// signingSecretKey is the key used to sign JWTs.
	signingSecretKey []byte

	// tokenTTL is the lifetime of issued tokens.
	tokenTTL time.Duration

	// bcryptCost is the cost factor passed to bcrypt.
	bcryptCost int
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and binds the subject username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserKey is the context key under which the authenticated user is stored.
const UserKey ContextKey = "user"

// New creates an Auth with the given user data access layer, signing secret,
// token lifetime and bcrypt cost.
func New(
	db userFinder,
	signingSecretKey []byte,
	tokenTTL time.Duration,
	bcryptCost int,
) *Auth {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &Auth{
		db:               db,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
		bcryptCost:       bcryptCost,
	}
}

// HashPassword returns the bcrypt hash of the plaintext password.
// The salt is random per call, so repeated hashes of one password differ.
func (a *Auth) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), a.bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
func (a *Auth) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// BuildJWTString issues a signed token binding the given username
// and an expiration instant.
func (a *Auth) BuildJWTString(username string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies the token signature and expiration and
// returns the bound username. Any failure yields models.ErrInvalidToken.
func (a *Auth) GetUsernameFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return "", models.ErrInvalidToken
	}

	return claims.Username, nil
}

// AuthenticateRequest resolves the bearer token to a stored user.
// It fails with models.ErrUnauthorized when the token is invalid or the
// subject no longer exists.
func (a *Auth) AuthenticateRequest(ctx context.Context, tokenString string) (*user.User, error) {
	username, err := a.GetUsernameFromToken(tokenString)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	usr, found, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUnauthorized
	}

	return usr, nil
}

// AuthenticateUser is an HTTP middleware that authenticates incoming requests
// using the `Authorization: Bearer <token>` header and stores the resolved
// user in the request context.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := getBearerToken(request)
		if err != nil {
			writeUnauthorized(response, err.Error())
			return
		}

		usr, err := a.AuthenticateRequest(request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				writeUnauthorized(response, "Could not validate credentials")
				return
			}
			logger.Log.Debugln("Error calling the `a.AuthenticateRequest()`: ", err)
			response.WriteHeader(http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(request.Context(), UserKey, usr)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserFromContext returns the user stored by AuthenticateUser, if any.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	usr, ok := ctx.Value(UserKey).(*user.User)

	return usr, ok
}

func getBearerToken(request *http.Request) (string, error) {
	authHeader := request.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header missing")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", errors.New("Invalid token format")
	}

	return tokenString, nil
}

func writeUnauthorized(response http.ResponseWriter, detail string) {
	response.Header().Set("Content-Type", "application/json")
	response.Header().Set("WWW-Authenticate", "Bearer")
	response.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(response).Encode(models.ErrorResponse{Detail: detail}); err != nil {
		logger.Log.Debugln("Error encoding the unauthorized response: ", err)
	}
}
