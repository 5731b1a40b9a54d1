package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"kiosco/src-client/model"
	"kiosco/src-client/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Status string

const (
	STATUS_DISCONNECTED = Status("disconnected")
	STATUS_CONNECTING   = Status("connecting")
	STATUS_CONNECTED    = Status("connected")
)

// Alert is the single in-flight new-order notification. A second order
// arriving before dismissal replaces it, last write wins; the order log
// still records every arrival.
type Alert struct {
	Order        Order
	Visible      bool
	Acknowledged bool
}

type Hooks struct {
	// current bearer token; false means not authenticated, and the
	// notifier refuses to connect
	Token func() (string, bool)

	Sounder AlertSounder
	Desktop DesktopNotifier

	// a new order arrived and the alert was stored
	OnOrder func(Order)
	// the host should refresh its order listing (dismiss path)
	OnRefreshOrders func()
	// the reconnect budget is spent; only OnForeground or Connect revive
	OnAttemptsExhausted func()
}

// Notifier owns the push channel and the Pending Order Alert. All state
// sits behind one mutex; the connection epoch invalidates read loops and
// reconnect timers left over from a torn-down connection.
type Notifier struct {
	as    *utils.AppState
	hooks Hooks

	mu                sync.Mutex
	status            Status
	conn              *websocket.Conn
	reconnectAttempts int
	reconnectTimer    *time.Timer
	epoch             uint64
	alert             *Alert

	writeMu sync.Mutex

	clientID string
	printer  *message.Printer
	dialer   *websocket.Dialer
	now      func() time.Time
}

func NewNotifier(as *utils.AppState, hooks Hooks) *Notifier {
	if hooks.Sounder == nil {
		hooks.Sounder = LogSounder{}
	}
	if hooks.Desktop == nil {
		hooks.Desktop = LogDesktop{}
	}
	return &Notifier{
		as:       as,
		hooks:    hooks,
		status:   STATUS_DISCONNECTED,
		clientID: uuid.NewString(),
		printer:  message.NewPrinter(language.Spanish),
		dialer:   websocket.DefaultDialer,
		now:      time.Now,
	}
}

// push channel lives on the same origin as the API
func (n *Notifier) wsUrl() string {
	u, err := url.Parse(n.as.Config.GetApiBaseUrl())
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"client_id": {n.clientID}}.Encode()
	return u.String()
}

// Connect opens the push channel. Calling it while connecting or connected
// is a no-op. It fails only when no authenticated session exists.
func (n *Notifier) Connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status != STATUS_DISCONNECTED {
		return nil
	}
	if _, ok := n.hooks.Token(); !ok {
		return fmt.Errorf("can't connect push channel: not authenticated")
	}

	n.epoch++
	n.status = STATUS_CONNECTING
	go n.dial(n.epoch)
	return nil
}

// Disconnect closes the channel, stops any looping alert audio and resets
// connection state. Immediate and total: nothing scheduled before the call
// may act afterward.
func (n *Notifier) Disconnect() {
	n.mu.Lock()
	n.epoch++
	if n.reconnectTimer != nil {
		n.reconnectTimer.Stop()
		n.reconnectTimer = nil
	}
	conn := n.conn
	n.conn = nil
	n.status = STATUS_DISCONNECTED
	n.reconnectAttempts = 0
	n.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	n.hooks.Sounder.Stop()
	slog.Info("push channel disconnected")
}

// OnForeground is the host's explicit backgrounded→foregrounded signal.
// If the channel is down it retries once, with a fresh attempt budget.
func (n *Notifier) OnForeground() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status == STATUS_CONNECTED {
		return
	}
	if n.reconnectTimer != nil {
		n.reconnectTimer.Stop()
		n.reconnectTimer = nil
	}
	n.reconnectAttempts = 0
	n.epoch++
	n.status = STATUS_CONNECTING
	slog.Debug("foreground reconnect")
	go n.dial(n.epoch)
}

func (n *Notifier) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

func (n *Notifier) ReconnectAttempts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reconnectAttempts
}

// PendingAlert returns a copy of the current alert, or nil.
func (n *Notifier) PendingAlert() *Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.alert == nil {
		return nil
	}
	alertCopy := *n.alert
	return &alertCopy
}

// Dismiss stops the audio, clears the alert and tells the host to refresh
// its order listing.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.alert = nil
	n.mu.Unlock()

	n.hooks.Sounder.Stop()
	if n.hooks.OnRefreshOrders != nil {
		n.hooks.OnRefreshOrders()
	}
}

// AcknowledgeAndView stops the audio, hands the current alert's order to
// the caller's open-order callback, then runs the dismiss sequence.
func (n *Notifier) AcknowledgeAndView(open func(Order)) {
	n.mu.Lock()
	alert := n.alert
	if alert != nil {
		alert.Acknowledged = true
	}
	n.mu.Unlock()

	n.hooks.Sounder.Stop()
	if alert != nil && open != nil {
		open(alert.Order)
	}
	n.Dismiss()
}

// RequestNotificationPermission asks the host platform for permission to
// raise native notifications. Never called implicitly.
func (n *Notifier) RequestNotificationPermission() bool {
	granted := n.hooks.Desktop.RequestPermission()
	if !granted {
		slog.Info("notification permission denied, degrading to in-app alerts")
	}
	return granted
}

// CheckOrders asks the backend over the channel for any missed orders.
func (n *Notifier) CheckOrders() error {
	return n.send(Envelope{Event: EVENT_CHECK_ORDERS})
}

func (n *Notifier) dial(epoch uint64) {
	rawToken, ok := n.hooks.Token()
	if !ok {
		n.mu.Lock()
		if epoch == n.epoch {
			n.status = STATUS_DISCONNECTED
		}
		n.mu.Unlock()
		slog.Warn("push channel dial skipped, session gone")
		return
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+rawToken)

	start := n.now()
	conn, _, err := n.dialer.Dial(n.wsUrl(), header)
	if err != nil {
		slog.Warn("push channel dial failed", "error", err)
		n.mu.Lock()
		if epoch != n.epoch {
			n.mu.Unlock()
			return
		}
		n.status = STATUS_DISCONNECTED
		n.scheduleReconnectLocked()
		n.mu.Unlock()
		return
	}

	n.mu.Lock()
	if epoch != n.epoch {
		n.mu.Unlock()
		conn.Close()
		return
	}
	n.conn = conn
	n.status = STATUS_CONNECTED
	n.reconnectAttempts = 0
	n.mu.Unlock()

	pushMetric(n.as.MetricChans.PushChannelDial, float64(time.Since(start).Microseconds()))
	pushMetric(n.as.MetricChans.ReconnectAttempts, 0)
	slog.Info("push channel connected")

	go n.readLoop(conn, epoch)
}

func (n *Notifier) readLoop(conn *websocket.Conn, epoch uint64) {
	for {
		var envelope Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			n.handleDisconnect(epoch, err)
			return
		}

		switch envelope.Event {
		case EVENT_NEW_ORDER:
			var order Order
			if err := json.Unmarshal(envelope.Data, &order); err != nil {
				slog.Error("can't unmarshal nuevo_pedido payload", "error", err)
				continue
			}
			n.handleOrder(order)
		default:
			slog.Debug("unhandled push event", "event", envelope.Event)
		}
	}
}

func (n *Notifier) handleDisconnect(epoch uint64, err error) {
	n.mu.Lock()
	if epoch != n.epoch {
		// explicit Disconnect already tore this connection down
		n.mu.Unlock()
		return
	}
	n.conn = nil
	n.status = STATUS_DISCONNECTED

	// server said goodbye on purpose: one immediate retry, not counted
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Info("push channel closed by server, retrying once")
		n.status = STATUS_CONNECTING
		go n.dial(epoch)
		n.mu.Unlock()
		return
	}

	slog.Warn("push channel dropped", "error", err)
	n.scheduleReconnectLocked()
	n.mu.Unlock()
}

// caller must hold n.mu
func (n *Notifier) scheduleReconnectLocked() {
	maxAttempts := n.as.Config.GetWsMaxReconnectAttempts()
	if n.reconnectAttempts >= maxAttempts {
		slog.Error("push channel reconnect attempts exhausted", "attempts", n.reconnectAttempts)
		if n.hooks.OnAttemptsExhausted != nil {
			go n.hooks.OnAttemptsExhausted()
		}
		return
	}

	n.reconnectAttempts++
	pushMetric(n.as.MetricChans.ReconnectAttempts, float64(n.reconnectAttempts))

	delay := n.as.Config.GetWsReconnectDelay()
	for i := 1; i < n.reconnectAttempts; i++ {
		delay *= 2
		if delay >= n.as.Config.GetWsReconnectMaxDelay() {
			delay = n.as.Config.GetWsReconnectMaxDelay()
			break
		}
	}

	epoch := n.epoch
	n.status = STATUS_CONNECTING
	slog.Debug("push channel reconnect scheduled", "attempt", n.reconnectAttempts, "delay", delay)
	n.reconnectTimer = time.AfterFunc(delay, func() {
		n.mu.Lock()
		if epoch != n.epoch {
			n.mu.Unlock()
			return
		}
		n.reconnectTimer = nil
		n.mu.Unlock()
		n.dial(epoch)
	})
}

// handleOrder runs the side effects in their required order: store the
// alert, loop the audio, raise the desktop notification, acknowledge back
// over the channel.
func (n *Notifier) handleOrder(order Order) {
	n.mu.Lock()
	if n.alert != nil && n.alert.Visible {
		slog.Warn("replacing pending order alert", "old", n.alert.Order.ID, "new", order.ID)
	}
	n.alert = &Alert{Order: order, Visible: true}
	n.mu.Unlock()

	n.hooks.Sounder.Start()

	if n.hooks.Desktop.PermissionGranted() {
		title := n.printer.Sprintf("Nuevo pedido #%d", order.ID)
		body := n.printer.Sprintf("%s, %d productos, $%.2f",
			order.Customer, order.ProductCount, order.Total)
		if err := n.hooks.Desktop.Notify(title, body); err != nil {
			slog.Warn("can't raise desktop notification", "error", err)
		}
	}

	if err := n.send(Envelope{
		Event: EVENT_NOTIFICATION_RECEIVED,
		Data: mustMarshal(ackPayload{
			OrderID:   order.ID,
			Timestamp: n.now().UnixMilli(),
		}),
	}); err != nil {
		slog.Warn("can't acknowledge order", "order", order.ID, "error", err)
	}

	start := n.now()
	orderLogModel := model.OrderLog{
		OrderID:       order.ID,
		Customer:      order.Customer,
		Total:         order.Total,
		ProductCount:  order.ProductCount,
		CustomerPhone: order.CustomerPhone,
	}
	if err := orderLogModel.Insert(context.Background(), n.as.BunDB); err != nil {
		slog.Error("can't log order", "order", order.ID, "error", err)
	} else {
		if err := model.MarkOrderAcknowledged(context.Background(), n.as.BunDB, order.ID); err != nil {
			slog.Warn("can't mark order acknowledged", "order", order.ID, "error", err)
		}
		pushMetric(n.as.MetricChans.DatabaseWrite, float64(time.Since(start).Microseconds()))
	}
	pushMetric(n.as.MetricChans.OrdersReceived, 1)

	if n.hooks.OnOrder != nil {
		n.hooks.OnOrder(order)
	}
}

func (n *Notifier) send(envelope Envelope) error {
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("push channel not connected")
	}

	n.writeMu.Lock()
	defer n.writeMu.Unlock()
	if err := conn.WriteJSON(envelope); err != nil {
		return fmt.Errorf("can't write to push channel: %w", err)
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("can't marshal payload", "error", err)
		return json.RawMessage("{}")
	}
	return data
}

// metric pushes are best effort; without the collector running nobody
// drains the channels
func pushMetric(ch chan float64, v float64) {
	select {
	case ch <- v:
	default:
	}
}
