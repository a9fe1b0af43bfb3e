package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/application/alerts"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/chatbot"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/dashboard"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/plants"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/scheduler"
	"github.com/diwise/hydroponic-monitor/internal/pkg/application/users"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/authadmin"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/notify"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/router"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/hydroponic-monitor/internal/pkg/presentation/api"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const serviceName string = "hydroponic-monitor"

type app struct {
	router  *chi.Mux
	store   database.Datastore
	watcher *alerts.Watcher
	jobs    []*scheduler.Job
	bot     *chatbot.Bot
	closers []func()
}

func main() {
	serviceVersion := version()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion, os.Getenv("LOG_LEVEL"))
	logger.Info().Msg("starting up ...")

	flags := parseExternalConfig(logger, defaultFlags())
	logging.SetLevel(flags[logLevel])

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	cfg := loadNotificationConfig(logger, flags[configurationFile])

	var policies io.Reader
	if flags[jwtSecret] != "" {
		policyFile, err := os.Open(flags[policiesFile])
		exitIf(err, logger, "unable to open opa policy file")
		defer policyFile.Close()
		policies = policyFile
	}

	var plantsData io.Reader
	if f, err := os.Open(flags[plantsFile]); err == nil {
		defer f.Close()
		plantsData = f
	} else {
		logger.Info().Str("file", flags[plantsFile]).Msg("no plant profiles to seed")
	}

	store, err := newStorage(logger)
	exitIf(err, logger, "could not create or connect to database")

	a, err := initialize(ctx, flags, cfg, store, policies, plantsData)
	exitIf(err, logger, "failed to initialize service")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.start(ctx)

	server := &http.Server{
		Addr:    net.JoinHostPort(flags[listenAddress], flags[servicePort]),
		Handler: a.router,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting to listen for connections")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start request router")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down http server")
	}

	a.stop()
}

func initialize(ctx context.Context, flags flagMap, cfg *notify.Config, store database.Datastore, policies, plantsData io.Reader) (*app, error) {
	log := logging.GetFromContext(ctx)

	if plantsData != nil {
		if err := database.SeedPlantProfiles(ctx, log, store, plantsData); err != nil {
			return nil, err
		}
	}

	a := &app{store: store}

	sinks := notify.Multi{notify.NewEventSender(cfg)}

	if flags[enableAMQP] == "true" {
		messenger, err := messaging.Initialize(messaging.LoadConfiguration(serviceName, log))
		if err != nil {
			return nil, err
		}

		messenger.RegisterTopicMessageHandler(notify.SensorDataTopic, notify.NewSensorDataHandler(store))
		sinks = append(sinks, notify.NewTopicPublisher(messenger))
		a.closers = append(a.closers, messenger.Close)
	}

	if flags[telegramToken] != "" {
		botAPI, err := chatbot.NewTelegramAPI(flags[telegramToken])
		if err != nil {
			return nil, err
		}

		chatID := cfg.Telegram.ChatID
		if flags[telegramChatID] != "" {
			chatID, err = strconv.ParseInt(flags[telegramChatID], 10, 64)
			if err != nil {
				return nil, err
			}
		}

		a.bot = chatbot.NewBot(botAPI, chatbot.NewResponder(store), chatID)

		if chatID != 0 {
			sinks = append(sinks, a.bot)
		} else {
			log.Warn().Msg("no telegram chat id configured, alerts will not be sent to chat")
		}
	}

	a.watcher = alerts.NewWatcher(store, sinks)

	window, err := strconv.Atoi(flags[dashboardWindow])
	if err != nil {
		window = dashboard.DefaultWindow
	}

	dash := dashboard.New(store, window)

	a.jobs = []*scheduler.Job{
		scheduler.New("alert-check", duration(log, flags[alertInterval], alerts.DefaultInterval), func(ctx context.Context) {
			a.watcher.Check(ctx)
		}, scheduler.WithRunAtStart(true)),
		scheduler.New("dashboard-refresh", duration(log, flags[dashboardInterval], dashboard.DefaultInterval), func(ctx context.Context) {
			dash.Refresh(ctx)
		}, scheduler.WithRunAtStart(true)),
	}

	admin := authadmin.New(flags[authURL], flags[authServiceRoleKey])

	svc := api.Services{
		Dashboard: dash,
		Plants:    plants.New(store),
		Users:     users.New(admin, store),
		AuthAdmin: admin,
		Alerts:    a.watcher,
		Profiles:  store,
	}

	r, err := api.RegisterHandlers(ctx, router.New(serviceName), policies, flags[jwtSecret], svc)
	if err != nil {
		return nil, err
	}

	a.router = r

	return a, nil
}

func (a *app) start(ctx context.Context) {
	for _, j := range a.jobs {
		j.Start(ctx)
	}

	if a.bot != nil {
		go a.bot.Run(ctx)
	}
}

func (a *app) stop() {
	for _, j := range a.jobs {
		j.Stop()
	}

	for _, c := range a.closers {
		c()
	}
}

func newStorage(log zerolog.Logger) (database.Datastore, error) {
	cfg := database.LoadConfiguration(log)

	if cfg.Host == "" {
		log.Warn().Msg("no database host configured, using in-memory storage")
		return database.New(database.NewSQLiteConnector(log))
	}

	return database.New(database.NewPostgreSQLConnector(log, cfg))
}

func loadNotificationConfig(log zerolog.Logger, path string) *notify.Config {
	f, err := os.Open(path)
	if err != nil {
		log.Info().Str("file", path).Msg("no notification configuration found")
		return &notify.Config{}
	}
	defer f.Close()

	cfg, err := notify.LoadConfiguration(f)
	exitIf(err, log, "could not parse notification configuration")

	return cfg
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Fatal().Err(err).Msg(msg)
	}
}
