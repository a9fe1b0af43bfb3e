package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/diwise/hydroponic-monitor/internal/pkg/application/dashboard"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/plants"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/users"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/authadmin"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/hydroponic-monitor/internal/pkg/presentation/api/auth"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hydroponic-monitor/api")

type AlertStateReader interface {
	State() types.AlertState
}

type Services struct {
	Dashboard dashboard.Dashboard
	Plants    plants.PlantManagement
	Users     users.UserManagement
	AuthAdmin authadmin.Client
	Alerts    AlertStateReader
	Profiles  auth.ProfileFinder
}

func RegisterHandlers(ctx context.Context, router *chi.Mux, policies io.Reader, jwtSecret string, svc Services) (*chi.Mux, error) {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log := logging.GetFromContext(ctx)

	authenticator, err := auth.NewAuthenticator(ctx, log, jwtSecret, svc.Profiles, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authenticator: %w", err)
	}

	protected := func(r chi.Router) {
		for _, mw := range authenticator {
			r.Use(mw)
		}
	}

	router.Route("/api/users", func(r chi.Router) {
		protected(r)

		r.Delete("/{id}", relayDeleteUserHandler(log, svc.AuthAdmin))
		r.Put("/{id}", relayUpdateUserHandler(log, svc.AuthAdmin))
	})

	router.Route("/api/v0", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			protected(r)

			r.Get("/overview", overviewHandler(log, svc.Dashboard))
			r.Get("/snapshot", snapshotHandler(svc.Dashboard))
			r.Get("/readings", readingsHandler(log, svc.Dashboard))
			r.Get("/levels", levelsHandler(log, svc.Dashboard))

			r.Route("/plants", func(r chi.Router) {
				r.Get("/", listPlantsHandler(log, svc.Plants))
				r.Post("/", createPlantHandler(log, svc.Plants))
				r.Get("/{id}", getPlantHandler(log, svc.Plants))
				r.Put("/{id}", updatePlantHandler(log, svc.Plants))
				r.Delete("/{id}", deletePlantHandler(log, svc.Plants))
				r.Put("/{id}/select", selectPlantHandler(log, svc.Plants))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", listUsersHandler(log, svc.Users))
				r.Post("/", createUserHandler(log, svc.Users))
				r.Put("/{id}", updateUserHandler(log, svc.Users))
				r.Delete("/{id}", deleteUserHandler(log, svc.Users))
			})

			r.Get("/alerts/state", alertStateHandler(svc.Alerts))
		})
	})

	return router, nil
}

func relayDeleteUserHandler(log zerolog.Logger, admin authadmin.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "relay-delete-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id := chi.URLParam(r, "id")

		err = admin.DeleteUser(ctx, id)
		if err != nil {
			requestLogger.Error().Err(err).Str("user_id", id).Msg("unable to delete user")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{true})
	}
}

func relayUpdateUserHandler(log zerolog.Logger, admin authadmin.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "relay-update-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id := chi.URLParam(r, "id")

		req := relayUpdateRequest{}
		err = decode(r, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		user, err := admin.UpdateUser(ctx, id, authadmin.UserAttributes{Email: req.Email, Password: req.Password})
		if err != nil {
			requestLogger.Error().Err(err).Str("user_id", id).Msg("unable to update user")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, struct {
			User authadmin.User `json:"user"`
		}{user})
	}
}

func overviewHandler(log zerolog.Logger, d dashboard.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-overview")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		window := dashboard.DefaultWindow

		if s := r.URL.Query().Get("window"); s == "all" {
			window = 0
		} else if s != "" {
			window, err = strconv.Atoi(s)
			if err != nil || window < 0 {
				requestLogger.Error().Str("window", s).Msg("invalid window")
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid window"})
				return
			}
		}

		overview, err := d.Overview(ctx, window)
		if errors.Is(err, dashboard.ErrNotReady) {
			err = nil
			writeJSON(w, http.StatusAccepted, statusResponse{Status: "loading"})
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to compute overview")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, overview)
	}
}

func snapshotHandler(d dashboard.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, ok := d.Snapshot()
		if !ok {
			writeJSON(w, http.StatusAccepted, statusResponse{Status: "loading"})
			return
		}

		writeJSON(w, http.StatusOK, overview)
	}
}

func readingsHandler(log zerolog.Logger, d dashboard.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-readings")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		page := intParam(r, "page", 1)
		pageSize := intParam(r, "pageSize", dashboard.DefaultPageSize)
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = dashboard.DefaultPageSize
		}

		result, err := d.Readings(ctx, page, pageSize)
		if errors.Is(err, dashboard.ErrNotReady) {
			err = nil
			writeJSON(w, http.StatusAccepted, statusResponse{Status: "loading"})
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to fetch readings")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		response := ApiResponse{
			Meta: &meta{
				TotalRecords: result.TotalCount,
				Offset:       &result.Offset,
				Limit:        &result.Limit,
				Count:        result.Count,
			},
			Data:  result.Data,
			Links: newPageLinks(r.URL, page, pageSize, result.TotalCount),
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response.Byte())
	}
}

func levelsHandler(log zerolog.Logger, d dashboard.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-optimised-levels")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		levels, err := d.OptimisedLevels(ctx)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to fetch plant profiles")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, levels)
	}
}

func listPlantsHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "list-plants")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		profiles, err := pm.List(ctx)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to fetch plant profiles")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, profiles)
	}
}

func getPlantHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-plant")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id, err := plantID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		profile, err := pm.Get(ctx, id)
		if err != nil {
			writePlantError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

func createPlantHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-plant")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		req := plantRequest{}
		err = decode(r, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		profile, err := pm.Create(ctx, req.profile())
		if err != nil {
			writePlantError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusCreated, profile)
	}
}

func updatePlantHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-plant")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id, err := plantID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		req := plantRequest{}
		err = decode(r, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		profile, err := pm.Update(ctx, id, req.profile())
		if err != nil {
			writePlantError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

func deletePlantHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "delete-plant")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id, err := plantID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		err = pm.Delete(ctx, id)
		if err != nil {
			writePlantError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func selectPlantHandler(log zerolog.Logger, pm plants.PlantManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "select-plant")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		id, err := plantID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		err = pm.Select(ctx, id)
		if err != nil {
			writePlantError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listUsersHandler(log zerolog.Logger, um users.UserManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "list-users")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		profiles, err := um.List(ctx)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to fetch users")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, profiles)
	}
}

func createUserHandler(log zerolog.Logger, um users.UserManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		req := userRequest{}
		err = decode(r, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		profile, err := um.Create(ctx, req.Email, req.Password, req.Role)
		if err != nil {
			writeUserError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusCreated, profile)
	}
}

func updateUserHandler(log zerolog.Logger, um users.UserManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		req := userRequest{}
		err = decode(r, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		profile, err := um.Update(ctx, chi.URLParam(r, "id"), req.Email, req.Password, req.Role)
		if err != nil {
			writeUserError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

func deleteUserHandler(log zerolog.Logger, um users.UserManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "delete-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := tracing.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		err = um.Delete(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeUserError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func alertStateHandler(alerts AlertStateReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, alerts.State())
	}
}

func (p plantRequest) profile() types.PlantProfile {
	return types.PlantProfile{
		Name:     p.Name,
		PHMin:    p.PHMin,
		PHMax:    p.PHMax,
		ECMin:    p.ECMin,
		ECMax:    p.ECMax,
		ImageURL: p.ImageURL,
	}
}

func plantID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid plant id")
	}
	return uint(id), nil
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

func decode(r *http.Request, v any) error {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func writePlantError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, plants.ErrInvalidProfile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, plants.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, plants.ErrPlantNameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("plant profile request failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeUserError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidUser):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, users.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, authadmin.ErrRequestFailed):
		logger.Warn().Err(err).Msg("auth backend rejected request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("user request failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
