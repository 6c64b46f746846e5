package models

// Priorities accepted by SendOptions.Priority.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// SendOptions describes the content of a push notification.
// Title and Body are required; every other field has a default.
type SendOptions struct {
	Title              string            `json:"title"`
	Body               string            `json:"body"`
	DeepLink           string            `json:"deepLink,omitempty"`
	Type               string            `json:"type,omitempty"`
	Icon               string            `json:"icon,omitempty"`
	Badge              string            `json:"badge,omitempty"`
	RequireInteraction bool              `json:"requireInteraction,omitempty"`
	Priority           string            `json:"priority,omitempty"`
	AndroidChannelID   string            `json:"androidChannelId,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
	NotificationID     string            `json:"notificationId,omitempty"`
}

// SendResult summarises one multicast delivery.
// Success is true when at least one token accepted the message.
type SendResult struct {
	Success              bool `json:"success"`
	TotalTokens          int  `json:"totalTokens"`
	SuccessCount         int  `json:"successCount"`
	FailureCount         int  `json:"failureCount"`
	InvalidTokensRemoved int  `json:"invalidTokensRemoved"`
}

// SendToUserResult extends SendResult with whether any tokens were stored for the user.
type SendToUserResult struct {
	SendResult
	TokensFound bool `json:"tokensFound"`
}
