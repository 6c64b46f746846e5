package presentation

import "go.uber.org/zap"

// ModalMessage is the in-app dialog shown for a foreground push.
type ModalMessage struct {
	Title    string
	Body     string
	DeepLink string
}

// Modal shows in-app dialogs.
type Modal interface {
	Show(msg ModalMessage)
}

// OSNotifier raises native notifications.
type OSNotifier interface {
	// Permitted reports whether native notifications are allowed.
	Permitted() bool
	Show(d Display) error
}

// Foreground presents pushes received while the app is open.
type Foreground struct {
	modal  Modal
	os     OSNotifier
	logger *zap.Logger
}

// NewForeground creates a Foreground presenter. os may be nil.
func NewForeground(modal Modal, os OSNotifier, logger *zap.Logger) *Foreground {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Foreground{modal: modal, os: os, logger: logger}
}

// Present always shows the modal and, when permitted, a native notification.
// Native notification failures are logged and ignored.
func (f *Foreground) Present(payload PushPayload) ModalMessage {
	n := payload.notification()
	msg := ModalMessage{
		Title:    firstNonEmpty(n.Title, payload.Data["type"], "New Notification"),
		Body:     firstNonEmpty(n.Body, "You have a new notification"),
		DeepLink: payload.Data["deepLink"],
	}
	f.modal.Show(msg)

	if f.os == nil || !f.os.Permitted() {
		return msg
	}
	err := f.os.Show(Display{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  DefaultIcon,
		Tag:   firstNonEmpty(payload.Data["notificationId"], "foreground"),
	})
	if err != nil {
		f.logger.Debug("could not show native notification", zap.Error(err))
	}
	return msg
}
