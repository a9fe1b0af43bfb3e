package main

import (
	"flag"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/rs/zerolog"
)

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort
	logLevel

	policiesFile
	configurationFile
	plantsFile

	authURL
	authServiceRoleKey
	jwtSecret

	telegramToken
	telegramChatID

	alertInterval
	dashboardInterval
	dashboardWindow

	enableAMQP
)

func defaultFlags() flagMap {
	return flagMap{
		listenAddress: "0.0.0.0",
		servicePort:   "8080",
		logLevel:      "info",

		policiesFile:      "/opt/diwise/config/authz.rego",
		configurationFile: "/opt/diwise/config/config.yaml",
		plantsFile:        "/opt/diwise/config/plants.csv",

		authURL:            "",
		authServiceRoleKey: "",
		jwtSecret:          "",

		telegramToken:  "",
		telegramChatID: "",

		alertInterval:     "1s",
		dashboardInterval: "3s",
		dashboardWindow:   "15",

		enableAMQP: "false",
	}
}

func parseExternalConfig(log zerolog.Logger, flags flagMap) flagMap {
	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault

	flags[listenAddress] = envOrDef(log, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef(log, "SERVICE_PORT", flags[servicePort])
	flags[logLevel] = envOrDef(log, "LOG_LEVEL", flags[logLevel])

	flags[policiesFile] = envOrDef(log, "POLICIES_FILE", flags[policiesFile])
	flags[configurationFile] = envOrDef(log, "CONFIG_FILE", flags[configurationFile])
	flags[plantsFile] = envOrDef(log, "PLANTS_FILE", flags[plantsFile])

	flags[authURL] = envOrDef(log, "AUTH_URL", flags[authURL])
	flags[authServiceRoleKey] = envOrDef(log, "AUTH_SERVICE_ROLE_KEY", flags[authServiceRoleKey])
	flags[jwtSecret] = envOrDef(log, "JWT_SECRET", flags[jwtSecret])

	flags[telegramToken] = envOrDef(log, "TELEGRAM_BOT_TOKEN", flags[telegramToken])
	flags[telegramChatID] = envOrDef(log, "TELEGRAM_CHAT_ID", flags[telegramChatID])

	flags[alertInterval] = envOrDef(log, "ALERT_INTERVAL", flags[alertInterval])
	flags[dashboardInterval] = envOrDef(log, "DASHBOARD_INTERVAL", flags[dashboardInterval])
	flags[dashboardWindow] = envOrDef(log, "DASHBOARD_WINDOW", flags[dashboardWindow])

	flags[enableAMQP] = envOrDef(log, "ENABLE_AMQP", flags[enableAMQP])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("policies", "an authorization policy file", apply(policiesFile))
	flag.Func("config", "notification configuration file", apply(configurationFile))
	flag.Func("plants", "plant profiles to seed the database with", apply(plantsFile))
	flag.Func("log-level", "minimum level of log messages", apply(logLevel))
	flag.Func("alert-interval", "how often the latest reading is checked for alerts", apply(alertInterval))
	flag.Parse()

	return flags
}

func duration(log zerolog.Logger, value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Warn().Str("value", value).Msgf("invalid interval, using %s", def)
		return def
	}
	return d
}
