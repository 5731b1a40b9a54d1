package utils

type Metric struct {
	DatabaseWrite     chan float64
	PushChannelDial   chan float64
	ReconnectAttempts chan float64
	OrdersReceived    chan float64
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseWrite:     make(chan float64),
		PushChannelDial:   make(chan float64),
		ReconnectAttempts: make(chan float64),
		OrdersReceived:    make(chan float64),
	}
}
