package models

// OrderEvent is the wire format for order lifecycle events on JetStream.
type OrderEvent struct {
	V          int    `msgpack:"v"`
	TS         int64  `msgpack:"ts"`
	CompanyID  string `msgpack:"company_id"`
	OrderID    string `msgpack:"order_id"`
	Number     int64  `msgpack:"number"`
	FromStatus string `msgpack:"from_status"`
	ToStatus   string `msgpack:"to_status"`
	ActorID    string `msgpack:"actor_id"`
	TotalCents int64  `msgpack:"total_cents"`
}

// PaymentEvent is the wire format for verified provider webhook events.
type PaymentEvent struct {
	V           int    `msgpack:"v"`
	TS          int64  `msgpack:"ts"`
	EventID     string `msgpack:"event_id"`
	Provider    string `msgpack:"provider"`
	Type        string `msgpack:"type"`
	ProviderRef string `msgpack:"provider_ref"`
	CompanyID   string `msgpack:"company_id"`
	PlanID      string `msgpack:"plan_id"`
	AmountCents int64  `msgpack:"amount_cents"`
	RawJSON     []byte `msgpack:"raw_json"`
}

// Heartbeat is the wire format for terminal KV presence entries.
type Heartbeat struct {
	V          int    `msgpack:"v"`
	TerminalID string `msgpack:"terminal_id"`
	CompanyID  string `msgpack:"company_id"`
	AppVersion string `msgpack:"app_version"`
	TS         int64  `msgpack:"ts"`
}
