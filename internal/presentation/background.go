package presentation

import (
	"encoding/json"

	"go.uber.org/zap"
)

// ParseBackgroundPush turns a raw push event body into the OS notification
// the service worker should raise. It reports false when nothing should be
// shown: the body is not JSON or carries neither a title nor a body.
func ParseBackgroundPush(raw []byte, logger *zap.Logger) (Display, bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(raw) == 0 {
		logger.Debug("push event had no data")
		return Display{}, false
	}

	var payload PushPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Info("dropping non-JSON push payload", zap.String("text", string(raw)))
		return Display{}, false
	}

	n := payload.notification()
	data := payload.Data
	if data == nil {
		data = map[string]string{}
	}

	title := firstNonEmpty(n.Title, data["title"])
	body := firstNonEmpty(n.Body, data["body"])
	if title == "" && body == "" {
		logger.Debug("no notification content to show")
		return Display{}, false
	}

	return Display{
		Title:              firstNonEmpty(title, "New Notification"),
		Body:               body,
		Icon:               firstNonEmpty(n.Icon, data["icon"], DefaultIcon),
		Badge:              DefaultIcon,
		Tag:                firstNonEmpty(data["tag"], payload.FCMMessageID, "default"),
		RequireInteraction: data["requireInteraction"] == "true",
		Data:               data,
	}, true
}
