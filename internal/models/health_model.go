package models

// Health status values.
const (
	HealthOK    = "ok"
	HealthError = "error"
)

// StoreHealth reports the result of probing the document store.
type StoreHealth struct {
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latencyMs,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthReport is the body returned by the health check endpoint.
// The store check is reported under "firestore" regardless of the storage driver
// so that existing monitors keep working.
type HealthReport struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Firestore StoreHealth `json:"firestore"`
}

// Healthy reports whether the store ping succeeded.
func (r HealthReport) Healthy() bool {
	return r.Firestore.Status == HealthOK
}
