package models

// Token actions accepted by ManageTokenRequest.
const (
	TokenActionRegister   = "register"
	TokenActionUnregister = "unregister"
)

// ManageTokenRequest is the payload of the manageFcmToken callable.
// Token is kept as any so that a non-string value can be rejected explicitly.
// Action is nil when the field is absent, which means register.
type ManageTokenRequest struct {
	Token  any     `json:"token"`
	Action *string `json:"action,omitempty"`
}

// TokenAction returns a pointer to action for building a ManageTokenRequest.
func TokenAction(action string) *string {
	return &action
}

// ManageTokenResponse is returned by manageFcmToken.
type ManageTokenResponse struct {
	Success bool `json:"success"`
}

// SendTestNotificationRequest is the payload of the sendTestNotification callable.
type SendTestNotificationRequest struct {
	CurrentToken string `json:"currentToken,omitempty"`
}

// SendTestNotificationResponse is returned by sendTestNotification.
type SendTestNotificationResponse struct {
	SendResult
	TokenFound bool `json:"tokenFound"`
}

// UpdateSettingsRequest is the payload of the updateUserSettings callable.
// Nil fields are left untouched.
type UpdateSettingsRequest struct {
	Theme *string `json:"theme,omitempty"`
}

// DispatchRequest asks the dispatcher to deliver a notification to a user.
// It is the message body published on the dispatch queue.
type DispatchRequest struct {
	UserID       string      `json:"userId"`
	Notification SendOptions `json:"notification"`
}
