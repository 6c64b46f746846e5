// Package presentation decides how an incoming push is shown to the user,
// both while the app is open and from the service worker.
package presentation

// DefaultIcon is used for OS notifications without an explicit icon.
const DefaultIcon = "/logo-192.png"

// PushPayload is the JSON body of a push event.
type PushPayload struct {
	Notification *PushNotification `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	FCMMessageID string            `json:"fcmMessageId,omitempty"`
}

// PushNotification is the platform-agnostic notification block.
type PushNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Display describes an OS notification to raise.
type Display struct {
	Title              string
	Body               string
	Icon               string
	Badge              string
	Tag                string
	RequireInteraction bool
	Data               map[string]string
}

func (p PushPayload) notification() PushNotification {
	if p.Notification == nil {
		return PushNotification{}
	}
	return *p.Notification
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
