package notify

import "encoding/json"

// event names on the push channel, as the backend speaks them
const (
	EVENT_NEW_ORDER             = "nuevo_pedido"
	EVENT_NOTIFICATION_RECEIVED = "notificacion_recibida"
	EVENT_CHECK_ORDERS          = "verificar_pedidos"
)

// Envelope wraps every message on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Order is the payload of a nuevo_pedido event, passed through unvalidated.
type Order struct {
	ID            int64   `json:"id_pedido"`
	Customer      string  `json:"cliente"`
	Total         float64 `json:"monto_total"`
	ProductCount  int     `json:"cantidad_productos"`
	CustomerPhone string  `json:"telefono_cliente"`
}

type ackPayload struct {
	OrderID   int64 `json:"pedido_id"`
	Timestamp int64 `json:"timestamp"`
}
