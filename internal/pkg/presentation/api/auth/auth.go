package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/go-chi/jwtauth/v5"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

type callerContextKey struct {
	name string
}

var callerCtxKey = &callerContextKey{"caller"}

var tracer = otel.Tracer("hydroponic-monitor/authz")

type Caller struct {
	UserID string
	Role   string
}

type ProfileFinder interface {
	GetProfile(ctx context.Context, id string) (types.UserProfile, error)
}

type Middleware func(http.Handler) http.Handler

// NewAuthenticator returns middleware that verifies the bearer token with the shared secret,
// looks up the role of the token subject and asks the rego policy if the request is allowed.
// Without a secret every request passes unchecked.
func NewAuthenticator(ctx context.Context, logger zerolog.Logger, secret string, profiles ProfileFinder, policies io.Reader) ([]Middleware, error) {
	if secret == "" {
		logger.Warn().Msg("no jwt secret configured, api is running without authentication")
		return []Middleware{allowAll}, nil
	}

	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	query, err := rego.New(
		rego.Query("x = data.hydroponics.authz.allow"),
		rego.Module("hydroponics.rego", string(module)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)

	return []Middleware{
		jwtauth.Verifier(tokenAuth),
		authorizer(query, profiles),
	}, nil
}

func allowAll(next http.Handler) http.Handler {
	return next
}

func authorizer(query rego.PreparedEvalQuery, profiles ProfileFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			ctx, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			logger := logging.GetFromContext(ctx)

			token, _, err := jwtauth.FromContext(ctx)
			if err != nil || token == nil {
				if err == nil {
					err = errors.New("authorization header missing")
				}
				logger.Info().Err(err).Msg("request not authenticated")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			caller := Caller{UserID: token.Subject()}

			profile, err := profiles.GetProfile(ctx, caller.UserID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				logger.Error().Err(err).Msg("failed to look up caller profile")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			caller.Role = profile.Role

			input := map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"role":   caller.Role,
			}

			results, err := query.Eval(ctx, rego.EvalInput(input))
			if err != nil {
				logger.Error().Err(err).Msg("opa eval failed")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if len(results) == 0 {
				err = errors.New("opa query could not be satisfied")
				logger.Error().Err(err).Msg("auth failed")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			allowed, ok := results[0].Bindings["x"].(bool)
			if !ok || !allowed {
				err = errors.New("authorization failed")
				logger.Warn().Str("user_id", caller.UserID).Str("role", caller.Role).Msg(err.Error())
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			r = r.WithContext(WithCaller(r.Context(), caller))

			next.ServeHTTP(w, r)
		})
	}
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerCtxKey).(Caller)
	return caller, ok
}
