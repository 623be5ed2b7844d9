package bridge

// RefreshPayload is what a device refresh request may carry.
type RefreshPayload struct {
	// APIKey is the provider credential held by the device. It has no other
	// delivery path into the bridge.
	APIKey string `json:"apiKey" validate:"omitempty,max=256,printascii"`
}

// Listener reacts to the two host triggers. Both start a full pipeline run
// and return its id.
type Listener interface {
	OnReady() string
	OnRefreshRequested(p RefreshPayload) string
}
