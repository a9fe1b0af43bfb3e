package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/application/dashboard"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/plants"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/users"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/authadmin"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/router"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/go-chi/jwtauth/v5"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestHealth(t *testing.T) {
	is, server, _ := testSetup(t, "")
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodGet, "/health", "", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent)
}

func TestRelayDeleteUser(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	resp, body := testRequest(is, server, http.MethodDelete, "/api/users/user-1", "", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(body, `{"success":true}`)
	is.Equal(env.admin.DeleteUserCalls()[0].ID, "user-1")
}

func TestThatRelayDeleteFailureReturnsBackendMessage(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	env.admin.DeleteUserFunc = func(ctx context.Context, id string) error {
		return &authadmin.Error{StatusCode: http.StatusNotFound, Message: "User not found"}
	}

	resp, body := testRequest(is, server, http.MethodDelete, "/api/users/nobody", "", nil)

	is.Equal(resp.StatusCode, http.StatusBadRequest)
	is.Equal(body, `{"error":"User not found"}`)
}

func TestRelayUpdateUser(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	resp, body := testRequest(is, server, http.MethodPut, "/api/users/user-1", "", strings.NewReader(`{"password":"hunter22"}`))
	is.Equal(resp.StatusCode, http.StatusOK)

	result := struct {
		User authadmin.User `json:"user"`
	}{}
	is.NoErr(json.Unmarshal([]byte(body), &result))
	is.Equal(result.User.ID, "user-1")

	attrs := env.admin.UpdateUserCalls()[0].Attrs
	is.Equal(attrs, authadmin.UserAttributes{Password: "hunter22"})
}

func TestThatRelayUpdateRejectsBadBody(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodPut, "/api/users/user-1", "", strings.NewReader(`{`))

	is.Equal(resp.StatusCode, http.StatusBadRequest)
	is.Equal(len(env.admin.UpdateUserCalls()), 0)
}

func TestOverviewIsLoadingUntilPlantIsSelected(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/overview", "", nil)
	is.Equal(resp.StatusCode, http.StatusAccepted)
	is.Equal(body, `{"status":"loading"}`)

	basil, err := env.store.CreatePlantProfile(context.Background(), types.PlantProfile{Name: "Basil", PHMin: 5.5, PHMax: 6.5, ECMin: 1, ECMax: 1.6})
	is.NoErr(err)
	is.NoErr(env.store.AddReading(context.Background(), types.SensorReading{PlantProfileName: "Basil", PH: 6, EC: 1.2, WaterTemperature: 20, CreatedAt: time.Now()}))

	resp, _ = testRequest(is, server, http.MethodPut, "/api/v0/plants/1/select", "", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent)

	resp, body = testRequest(is, server, http.MethodGet, "/api/v0/overview?window=all", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	overview := dashboard.Overview{}
	is.NoErr(json.Unmarshal([]byte(body), &overview))
	is.Equal(overview.Plant.ID, basil.ID)
	is.Equal(overview.Window, 0)
	is.Equal(len(overview.Readings), 1)
}

func TestPlantsCrud(t *testing.T) {
	is, server, _ := testSetup(t, "")
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodPost, "/api/v0/plants", "", strings.NewReader(`{"name":"Lettuce","ph_min":5.5,"ph_max":6.5,"ec_min":0.8,"ec_max":1.2}`))
	is.Equal(resp.StatusCode, http.StatusCreated)

	resp, _ = testRequest(is, server, http.MethodPost, "/api/v0/plants", "", strings.NewReader(`{"name":"Lettuce","ph_min":5.5,"ph_max":6.5,"ec_min":0.8,"ec_max":1.2}`))
	is.Equal(resp.StatusCode, http.StatusConflict)

	resp, _ = testRequest(is, server, http.MethodPost, "/api/v0/plants", "", strings.NewReader(`{"name":"Kale","ph_min":7,"ph_max":6,"ec_min":0.8,"ec_max":1.2}`))
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	resp, _ = testRequest(is, server, http.MethodPut, "/api/v0/plants/1", "", strings.NewReader(`{"name":"Lettuce","ph_min":5.8,"ph_max":6.5,"ec_min":0.8,"ec_max":1.2}`))
	is.Equal(resp.StatusCode, http.StatusOK)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/plants/1", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	p := types.PlantProfile{}
	is.NoErr(json.Unmarshal([]byte(body), &p))
	is.Equal(p.PHMin, 5.8)

	resp, body = testRequest(is, server, http.MethodGet, "/api/v0/levels", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(body, `[{"id":1,"name":"Lettuce","ph":6.15,"ec":1}]`)

	resp, _ = testRequest(is, server, http.MethodDelete, "/api/v0/plants/1", "", nil)
	is.Equal(resp.StatusCode, http.StatusNoContent)

	resp, _ = testRequest(is, server, http.MethodGet, "/api/v0/plants/1", "", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)

	resp, _ = testRequest(is, server, http.MethodGet, "/api/v0/plants/abc", "", nil)
	is.Equal(resp.StatusCode, http.StatusBadRequest)
}

func TestReadingsArePaged(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	ctx := context.Background()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		is.NoErr(env.store.AddReading(ctx, types.SensorReading{PlantProfileName: "Basil", PH: float64(i), CreatedAt: start.Add(time.Duration(i) * time.Second)}))
	}
	is.NoErr(env.store.AddReading(ctx, types.SensorReading{PlantProfileName: "Mint", PH: 7, CreatedAt: start}))

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/readings?page=2&pageSize=2", "", nil)
	is.Equal(resp.StatusCode, http.StatusAccepted)
	is.Equal(body, `{"status":"loading"}`)

	basil, err := env.store.CreatePlantProfile(ctx, types.PlantProfile{Name: "Basil", PHMin: 5.5, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6})
	is.NoErr(err)
	is.NoErr(env.store.SelectPlant(ctx, basil.ID))

	resp, body = testRequest(is, server, http.MethodGet, "/api/v0/readings?page=2&pageSize=2", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	result := struct {
		Meta  meta                  `json:"meta"`
		Data  []types.SensorReading `json:"data"`
		Links links                 `json:"links"`
	}{}
	is.NoErr(json.Unmarshal([]byte(body), &result))

	is.Equal(result.Meta.TotalRecords, uint64(3))
	is.Equal(len(result.Data), 1)
	is.Equal(result.Data[0].PH, 0.0)
	is.True(result.Links.Next == nil)
	is.Equal(*result.Links.Prev, "/api/v0/readings?page=1&pageSize=2")
}

func TestUsersAreCreatedThroughAuthBackend(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodPost, "/api/v0/users", "", strings.NewReader(`{"email":"grower@example.com","password":"short","role":"user"}`))
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	resp, _ = testRequest(is, server, http.MethodPost, "/api/v0/users", "", strings.NewReader(`{"email":"grower@example.com","password":"secret1","role":"user"}`))
	is.Equal(resp.StatusCode, http.StatusCreated)
	is.Equal(len(env.admin.CreateUserCalls()), 1)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/users", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	profiles := []types.UserProfile{}
	is.NoErr(json.Unmarshal([]byte(body), &profiles))
	is.Equal(len(profiles), 1)
	is.Equal(profiles[0].Email, "grower@example.com")
}

func TestAlertState(t *testing.T) {
	is, server, env := testSetup(t, "")
	defer server.Close()

	env.alerts.state = types.AlertState{ECBelow: true}

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/alerts/state", "", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(body, `{"ph_above":false,"ph_below":false,"ec_above":false,"ec_below":true}`)
}

func TestThatMissingTokenIsRejected(t *testing.T) {
	is, server, _ := testSetup(t, jwtSecret)
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/plants", "", nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)

	resp, _ = testRequest(is, server, http.MethodDelete, "/api/users/user-1", "", nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
}

func TestThatUsersMayReadButNotWrite(t *testing.T) {
	is, server, env := testSetup(t, jwtSecret)
	defer server.Close()

	is.NoErr(env.store.CreateProfile(context.Background(), types.UserProfile{ID: "user-1", Email: "grower@example.com", Role: types.RoleUser}))
	token := createToken(is, "user-1")

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/plants", token, nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	resp, _ = testRequest(is, server, http.MethodPost, "/api/v0/plants", token, strings.NewReader(`{"name":"Mint","ph_min":6,"ph_max":7,"ec_min":1,"ec_max":1.6}`))
	is.Equal(resp.StatusCode, http.StatusForbidden)

	resp, _ = testRequest(is, server, http.MethodDelete, "/api/users/user-2", token, nil)
	is.Equal(resp.StatusCode, http.StatusForbidden)
	is.Equal(len(env.admin.DeleteUserCalls()), 0)
}

func TestThatAdminsMayWrite(t *testing.T) {
	is, server, env := testSetup(t, jwtSecret)
	defer server.Close()

	is.NoErr(env.store.CreateProfile(context.Background(), types.UserProfile{ID: "admin-1", Email: "boss@example.com", Role: types.RoleAdmin}))
	token := createToken(is, "admin-1")

	resp, _ := testRequest(is, server, http.MethodPost, "/api/v0/plants", token, strings.NewReader(`{"name":"Mint","ph_min":6,"ph_max":7,"ec_min":1,"ec_max":1.6}`))
	is.Equal(resp.StatusCode, http.StatusCreated)

	resp, _ = testRequest(is, server, http.MethodDelete, "/api/users/user-2", token, nil)
	is.Equal(resp.StatusCode, http.StatusOK)
}

func TestThatUnknownSubjectIsForbidden(t *testing.T) {
	is, server, _ := testSetup(t, jwtSecret)
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodGet, "/api/v0/plants", createToken(is, "stranger"), nil)
	is.Equal(resp.StatusCode, http.StatusForbidden)
}

const jwtSecret string = "super-secret-jwt-token-with-at-least-32-characters"

type testEnv struct {
	store  database.Datastore
	admin  *authadmin.ClientMock
	alerts *fakeAlerts
}

type fakeAlerts struct {
	state types.AlertState
}

func (f *fakeAlerts) State() types.AlertState {
	return f.state
}

func createToken(is *is.I, subject string) string {
	_, token, err := jwtauth.New("HS256", []byte(jwtSecret), nil).Encode(map[string]interface{}{"sub": subject})
	is.NoErr(err)
	return token
}

func testSetup(t *testing.T, secret string) (*is.I, *httptest.Server, testEnv) {
	is := is.New(t)
	ctx := context.Background()

	store, err := database.New(database.NewSQLiteConnector(zerolog.Nop()))
	is.NoErr(err)

	env := testEnv{
		store: store,
		admin: &authadmin.ClientMock{
			CreateUserFunc: func(ctx context.Context, email, password string) (authadmin.User, error) {
				return authadmin.User{ID: "user-1", Email: email}, nil
			},
			UpdateUserFunc: func(ctx context.Context, id string, attrs authadmin.UserAttributes) (authadmin.User, error) {
				return authadmin.User{ID: id, Email: attrs.Email}, nil
			},
			DeleteUserFunc: func(ctx context.Context, id string) error {
				return nil
			},
		},
		alerts: &fakeAlerts{},
	}

	svc := Services{
		Dashboard: dashboard.New(store, dashboard.DefaultWindow),
		Plants:    plants.New(store),
		Users:     users.New(env.admin, store),
		AuthAdmin: env.admin,
		Alerts:    env.alerts,
		Profiles:  store,
	}

	r, err := RegisterHandlers(ctx, router.New("test"), strings.NewReader(policies), secret, svc)
	is.NoErr(err)

	return is, httptest.NewServer(r), env
}

func testRequest(is *is.I, ts *httptest.Server, method, path, token string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	return resp, strings.TrimSpace(string(respBody))
}

const policies string = `
package hydroponics.authz

default allow = false

allow {
	input.role == "admin"
}

allow {
	input.role == "user"
	input.method == "GET"
	startswith(input.path, "/api/v0/")
}
`
