package authadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("hydroponic-monitor/authadmin")

var ErrRequestFailed = fmt.Errorf("auth admin request failed")

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type UserAttributes struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

//go:generate moq -rm -out authadmin_mock.go . Client

type Client interface {
	CreateUser(ctx context.Context, email, password string) (User, error)
	UpdateUser(ctx context.Context, id string, attrs UserAttributes) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

type client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// New returns a client for the admin user endpoints of the auth backend found at baseURL.
// The service role key is sent both as bearer token and as apikey header.
func New(baseURL, serviceRoleKey string) Client {
	base := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: serviceRoleKey, TokenType: "Bearer"})

	return &client{
		url:        strings.TrimSuffix(baseURL, "/") + "/auth/v1/admin/users",
		apiKey:     serviceRoleKey,
		httpClient: oauth2.NewClient(ctx, tokens),
	}
}

func (c *client) CreateUser(ctx context.Context, email, password string) (User, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-user")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body := struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		EmailConfirm bool   `json:"email_confirm"`
	}{email, password, true}

	user := User{}
	err = c.do(ctx, http.MethodPost, c.url, body, &user)

	return user, err
}

func (c *client) UpdateUser(ctx context.Context, id string, attrs UserAttributes) (User, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-user")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	user := User{}
	err = c.do(ctx, http.MethodPut, c.userURL(id), attrs, &user)

	return user, err
}

func (c *client) DeleteUser(ctx context.Context, id string) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-user")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodDelete, c.userURL(id), nil, nil)

	return err
}

func (c *client) userURL(id string) string {
	return c.url + "/" + url.PathEscape(id)
}

func (c *client) do(ctx context.Context, method, target string, body, result any) error {
	log := logging.GetFromContext(ctx)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRequestFailed, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := errorMessage(respBody)
		log.Error().Int("status", resp.StatusCode).Str("method", method).Msgf("auth admin request failed: %s", msg)
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return nil
}

// Error carries the message returned by the auth backend unchanged.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return ErrRequestFailed
}

func errorMessage(body []byte) string {
	fields := map[string]any{}

	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"msg", "message", "error_description", "error"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
	}

	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}

	return "request failed"
}
