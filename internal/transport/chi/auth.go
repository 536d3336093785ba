package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	logpkg "github.com/kailas-cloud/matchdex/internal/logger"
)

// ActorHeader carries the actor id when authentication is disabled (local runs).
const ActorHeader = "X-Actor-ID"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type actorKey struct{}

// ContextWithActor stores the authenticated actor id.
func ContextWithActor(ctx context.Context, actor candidate.ID) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor id, if any.
func ActorFromContext(ctx context.Context) (candidate.ID, bool) {
	actor, ok := ctx.Value(actorKey{}).(candidate.ID)
	return actor, ok && actor != ""
}

// AuthConfig configures JWT validation.
type AuthConfig struct {
	// Secret is the HS256 signing key. Empty disables authentication.
	Secret string
	// Issuer, when set, must match the iss claim.
	Issuer string
}

// JWTAuthMiddleware validates HS256 Bearer tokens and stores the sub claim as
// the actor id. With an empty secret it trusts the X-Actor-ID header instead.
func JWTAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			var raw string
			if cfg.Secret == "" {
				raw = r.Header.Get(ActorHeader)
			} else {
				sub, msg := bearerSubject(parser, key, r.Header.Get("Authorization"))
				if msg != "" {
					writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
					return
				}
				raw = sub
			}

			actor, err := candidate.ParseID(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing or invalid actor")
				return
			}

			ctx := ContextWithActor(r.Context(), actor)
			ctx = logpkg.With(ctx, zap.String("actor_id", string(actor)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerSubject returns the sub claim of a valid token, or a client message.
func bearerSubject(parser *jwt.Parser, key []byte, header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(header[len(bearerPrefix):], &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", "token expired"
	case err != nil:
		return "", "invalid token"
	case claims.Subject == "":
		return "", "token has no subject"
	}
	return claims.Subject, ""
}
