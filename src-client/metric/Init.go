package metric

import (
	"log/slog"
	"time"

	"kiosco/src-client/session"
	"kiosco/src-client/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosco_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("kiosco_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("kiosco_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosco_database_write_microsec",
		Help: "The latency of a database write in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_database_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_database_write_microsec metric registered")
		databaseWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseWrite) {
				case true:
					slog.Debug("kiosco_database_write_microsec metric unregistered")
				case false:
					slog.Warn("kiosco_database_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseWrite:
				databaseWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseWrite.Set(0)
			}
		}
	}()
}

func pushChannelDial(as *utils.AppState, clearTickerInterval *time.Duration) {
	pushChannelDial := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosco_push_channel_dial_microsec",
		Help: "The latency of the last push channel dial in microseconds",
	})
	good := true
	if err := prometheus.Register(pushChannelDial); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_push_channel_dial_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_push_channel_dial_microsec metric registered")
		pushChannelDial.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(pushChannelDial) {
				case true:
					slog.Debug("kiosco_push_channel_dial_microsec metric unregistered")
				case false:
					slog.Warn("kiosco_push_channel_dial_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.PushChannelDial:
				pushChannelDial.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				pushChannelDial.Set(0)
			}
		}
	}()
}

func reconnectAttempts(as *utils.AppState) {
	reconnectAttempts := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosco_push_channel_reconnect_attempts",
		Help: "The current reconnect attempt counter of the push channel",
	})
	good := true
	if err := prometheus.Register(reconnectAttempts); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_push_channel_reconnect_attempts metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_push_channel_reconnect_attempts metric registered")
		reconnectAttempts.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(reconnectAttempts) {
				case true:
					slog.Debug("kiosco_push_channel_reconnect_attempts metric unregistered")
				case false:
					slog.Warn("kiosco_push_channel_reconnect_attempts metric not registered")
				}
				return
			case attempts := <-as.MetricChans.ReconnectAttempts:
				reconnectAttempts.Set(attempts)
			}
		}
	}()
}

func ordersReceived(as *utils.AppState) {
	ordersReceived := promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosco_orders_received_total",
		Help: "The number of orders delivered over the push channel",
	})
	good := true
	if err := prometheus.Register(ordersReceived); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_orders_received_total metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_orders_received_total metric registered")
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(ordersReceived) {
				case true:
					slog.Debug("kiosco_orders_received_total metric unregistered")
				case false:
					slog.Warn("kiosco_orders_received_total metric not registered")
				}
				return
			case count := <-as.MetricChans.OrdersReceived:
				ordersReceived.Add(count)
			}
		}
	}()
}

func sessionTimeRemaining(as *utils.AppState, mgr *session.Manager, tickerInterval *time.Duration) {
	sessionTimeRemaining := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosco_session_time_remaining_seconds",
		Help: "Seconds until the current session expires, 0 when unauthenticated",
	})
	good := true
	if err := prometheus.Register(sessionTimeRemaining); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register kiosco_session_time_remaining_seconds metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("kiosco_session_time_remaining_seconds metric registered")
		sessionTimeRemaining.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(sessionTimeRemaining) {
				case true:
					slog.Debug("kiosco_session_time_remaining_seconds metric unregistered")
				case false:
					slog.Warn("kiosco_session_time_remaining_seconds metric not registered")
				}
				return
			case <-ticker.C:
				sessionTimeRemaining.Set(mgr.TimeRemaining().Seconds())
			}
		}
	}()
}

func Init(as *utils.AppState, mgr *session.Manager) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseWrite(as, &clearTickerInterval)
	pushChannelDial(as, &clearTickerInterval)
	reconnectAttempts(as)
	ordersReceived(as)
	sessionTimeRemaining(as, mgr, &tickerInterval)
}
