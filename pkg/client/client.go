package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
)

// UserRelayClient talks to the privileged account relay of the hydroponic monitor.
type UserRelayClient interface {
	DeleteUser(ctx context.Context, userID string) error
	UpdateUser(ctx context.Context, userID string, email, password string) (User, error)
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type relayClient struct {
	url        string
	httpClient *http.Client
}

var tracer = otel.Tracer("hydroponic-monitor-client")

// New creates a client for the relay at url. An empty token sends requests without
// an Authorization header.
func New(url, token string) UserRelayClient {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	}

	return &relayClient{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: httpClient,
	}
}

func (rc *relayClient) DeleteUser(ctx context.Context, userID string) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-user")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)
	log.Info().Msgf("deleting user %s", userID)

	result := struct {
		Success bool `json:"success"`
	}{}

	err = rc.do(ctx, http.MethodDelete, "/api/users/"+userID, nil, &result)
	if err != nil {
		return err
	}

	if !result.Success {
		err = fmt.Errorf("relay did not confirm deletion of user %s", userID)
		return err
	}

	return nil
}

func (rc *relayClient) UpdateUser(ctx context.Context, userID string, email, password string) (User, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-user")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body := struct {
		Email    string `json:"email,omitempty"`
		Password string `json:"password,omitempty"`
	}{email, password}

	result := struct {
		User User `json:"user"`
	}{}

	err = rc.do(ctx, http.MethodPut, "/api/users/"+userID, body, &result)

	return result.User, err
}

func (rc *relayClient) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rc.url+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to relay failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		failure := struct {
			Error string `json:"error"`
		}{}
		if json.Unmarshal(respBody, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("relay returned %d: %s", resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return nil
}
