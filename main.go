package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosco/src-client/guard"
	"kiosco/src-client/metric"
	"kiosco/src-client/model"
	"kiosco/src-client/notify"
	"kiosco/src-client/scheduler"
	"kiosco/src-client/session"
	"kiosco/src-client/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	as := utils.NewAppState()

	if err := model.CreateSchema(as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	// the notifier is wired below; the session hooks need to reach it
	var notifier *notify.Notifier

	mgr := session.NewManager(as, session.Hooks{
		Navigate: func(path string) {
			slog.Info("navigate", "path", path)
			if path == guard.LoginPath && notifier != nil {
				notifier.Disconnect()
			}
		},
		OnExpiryWarning: func(remaining time.Duration) {
			slog.Warn("session expires soon, log in again to keep receiving orders", "remaining", remaining)
		},
		OnSessionExpired: func() {
			slog.Warn("session expired, orders will stop until the next login")
		},
	})

	notifier = notify.NewNotifier(as, notify.Hooks{
		Token: func() (string, bool) {
			user := mgr.CurrentUser()
			if user == nil || !mgr.IsAuthenticated() {
				return "", false
			}
			return user.RawToken, true
		},
		OnOrder: func(order notify.Order) {
			slog.Info("new order",
				"id", order.ID,
				"customer", order.Customer,
				"total", order.Total,
				"products", order.ProductCount)
		},
		OnRefreshOrders: func() {
			orders, err := model.RecentOrders(context.Background(), as.BunDB, 20)
			if err != nil {
				slog.Error("can't refresh order listing", "error", err)
				return
			}
			slog.Info("order listing refreshed", "count", len(orders))
		},
		OnAttemptsExhausted: func() {
			slog.Error("push channel gone, waiting for a manual or foreground reconnect")
		},
	})

	mgr.RestoreSession(context.Background())

	// unattended terminals log themselves in
	if !mgr.IsAuthenticated() &&
		as.Config.GetTerminalUsername() != "" && as.Config.GetTerminalPassword() != "" {
		if _, err := mgr.Login(context.Background(), session.Credentials{
			Username:   as.Config.GetTerminalUsername(),
			Password:   as.Config.GetTerminalPassword(),
			RememberMe: true,
		}); err != nil {
			slog.Error("unattended login failed", "error", err)
		}
	}

	if mgr.IsAuthenticated() {
		if err := notifier.Connect(); err != nil {
			slog.Error("can't open push channel", "error", err)
		}
	} else {
		slog.Info("starting unauthenticated, push channel stays closed")
	}

	metric.Init(as, mgr)
	go scheduler.OrderLogPrune(as)

	// local endpoints for the host UI
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		muxer.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
			type statusRespBody struct {
				Authenticated     bool          `json:"authenticated"`
				Username          string        `json:"username,omitempty"`
				Role              string        `json:"role,omitempty"`
				TimeRemainingSec  float64       `json:"time_remaining_sec"`
				SessionExpired    bool          `json:"session_expired"`
				PushStatus        notify.Status `json:"push_status"`
				ReconnectAttempts int           `json:"reconnect_attempts"`
				PendingAlert      *notify.Alert `json:"pending_alert,omitempty"`
			}
			respBody := statusRespBody{
				Authenticated:     mgr.IsAuthenticated(),
				TimeRemainingSec:  mgr.TimeRemaining().Seconds(),
				SessionExpired:    mgr.SessionExpired(),
				PushStatus:        notifier.Status(),
				ReconnectAttempts: notifier.ReconnectAttempts(),
				PendingAlert:      notifier.PendingAlert(),
			}
			if user := mgr.CurrentUser(); user != nil {
				respBody.Username = user.Username
				respBody.Role = string(user.Role)
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(respBody); err != nil {
				slog.Warn("can't write status response", "error", err)
			}
		})
		muxer.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
			orders, err := model.RecentOrders(r.Context(), as.BunDB, 50)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't read order log"))
				slog.Error("can't read order log", "error", err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(orders); err != nil {
				slog.Warn("can't write orders response", "error", err)
			}
		})
		muxer.HandleFunc("POST /foreground", func(w http.ResponseWriter, r *http.Request) {
			notifier.OnForeground()
			w.WriteHeader(http.StatusOK)
		})
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan

	notifier.Disconnect()
	mgr.Teardown()
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}
