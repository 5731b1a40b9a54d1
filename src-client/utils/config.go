package utils

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	port string

	apiBaseUrl string
	dbPath     string

	sessionWarningWindow time.Duration

	wsReconnectDelay       time.Duration
	wsReconnectMaxDelay    time.Duration
	wsMaxReconnectAttempts int

	orderLogRetention        time.Duration
	metricCollectionInterval time.Duration

	location *time.Location

	terminalUsername string
	terminalPassword string
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "9090"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		apiBaseUrl: func() string {
			apiBaseUrl := os.Getenv("API_BASE_URL")
			if apiBaseUrl == "" {
				slog.Error("API_BASE_URL is not set")
				os.Exit(1)
			}
			if _, err := url.Parse(apiBaseUrl); err != nil {
				slog.Error("invalid API_BASE_URL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "API_BASE_URL", apiBaseUrl)
			return apiBaseUrl
		}(),
		dbPath: func() string {
			dbPath := os.Getenv("DB_PATH")
			if dbPath == "" {
				dbPath = "./kiosco.db"
			}
			slog.Debug("env", "DB_PATH", dbPath)
			return dbPath
		}(),

		sessionWarningWindow: func() time.Duration {
			warningWindow := os.Getenv("SESSION_WARNING_WINDOW")
			if warningWindow == "" {
				slog.Warn("SESSION_WARNING_WINDOW is not set")
				warningWindow = "5m"
			}
			duration, err := time.ParseDuration(warningWindow)
			if err != nil {
				slog.Error("invalid SESSION_WARNING_WINDOW", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SESSION_WARNING_WINDOW", warningWindow, "duration", duration)
			return duration
		}(),

		wsReconnectDelay: func() time.Duration {
			reconnectDelay := os.Getenv("WS_RECONNECT_DELAY")
			if reconnectDelay == "" {
				reconnectDelay = "3s"
			}
			duration, err := time.ParseDuration(reconnectDelay)
			if err != nil {
				slog.Error("invalid WS_RECONNECT_DELAY", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "WS_RECONNECT_DELAY", reconnectDelay, "duration", duration)
			return duration
		}(),
		wsReconnectMaxDelay: func() time.Duration {
			reconnectMaxDelay := os.Getenv("WS_RECONNECT_MAX_DELAY")
			if reconnectMaxDelay == "" {
				reconnectMaxDelay = "30s"
			}
			duration, err := time.ParseDuration(reconnectMaxDelay)
			if err != nil {
				slog.Error("invalid WS_RECONNECT_MAX_DELAY", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "WS_RECONNECT_MAX_DELAY", reconnectMaxDelay, "duration", duration)
			return duration
		}(),
		wsMaxReconnectAttempts: func() int {
			maxAttempts := os.Getenv("WS_MAX_RECONNECT_ATTEMPTS")
			if maxAttempts == "" {
				maxAttempts = "10"
			}
			count, err := strconv.Atoi(maxAttempts)
			if err != nil || count < 1 {
				slog.Error("invalid WS_MAX_RECONNECT_ATTEMPTS", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "WS_MAX_RECONNECT_ATTEMPTS", count)
			return count
		}(),

		orderLogRetention: func() time.Duration {
			retention := os.Getenv("ORDER_LOG_RETENTION")
			if retention == "" {
				retention = "720h" // 30 days
			}
			duration, err := time.ParseDuration(retention)
			if err != nil {
				slog.Error("invalid ORDER_LOG_RETENTION", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "ORDER_LOG_RETENTION", retention, "duration", duration)
			return duration
		}(),
		metricCollectionInterval: func() time.Duration {
			interval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if interval == "" {
				interval = "15s"
			}
			duration, err := time.ParseDuration(interval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", interval, "duration", duration)
			return duration
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		terminalUsername: func() string {
			terminalUsername := os.Getenv("TERMINAL_USERNAME")
			if terminalUsername != "" {
				slog.Debug("env", "TERMINAL_USERNAME", terminalUsername)
			}
			return terminalUsername
		}(),
		terminalPassword: func() string {
			terminalPassword := os.Getenv("TERMINAL_PASSWORD")
			if terminalPassword != "" {
				slog.Debug("env", "TERMINAL_PASSWORD", terminalPassword[0:1]+"...")
			}
			return terminalPassword
		}(),
	}
}

// Get PORT env, default to 9090
func (c *Config) GetPort() string {
	return c.port
}

// Get API_BASE_URL env
func (c *Config) GetApiBaseUrl() string {
	return c.apiBaseUrl
}

// Get DB_PATH env, default to ./kiosco.db
func (c *Config) GetDbPath() string {
	return c.dbPath
}

// Get SESSION_WARNING_WINDOW env, default to 5m
func (c *Config) GetSessionWarningWindow() time.Duration {
	return c.sessionWarningWindow
}

// Get WS_RECONNECT_DELAY env, default to 3s
func (c *Config) GetWsReconnectDelay() time.Duration {
	return c.wsReconnectDelay
}

// Get WS_RECONNECT_MAX_DELAY env, default to 30s
func (c *Config) GetWsReconnectMaxDelay() time.Duration {
	return c.wsReconnectMaxDelay
}

// Get WS_MAX_RECONNECT_ATTEMPTS env, default to 10
func (c *Config) GetWsMaxReconnectAttempts() int {
	return c.wsMaxReconnectAttempts
}

// Get ORDER_LOG_RETENTION env, default to 720h
func (c *Config) GetOrderLogRetention() time.Duration {
	return c.orderLogRetention
}

// Get METRIC_COLLECTION_INTERVAL env, default to 15s
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get TERMINAL_USERNAME env, empty when unattended login is disabled
func (c *Config) GetTerminalUsername() string {
	return c.terminalUsername
}

// Get TERMINAL_PASSWORD env, empty when unattended login is disabled
func (c *Config) GetTerminalPassword() string {
	return c.terminalPassword
}
