package presentation

import "strings"

// WindowClient is an open app window visible to the service worker.
type WindowClient struct {
	ID  string
	URL string
}

// ClickKind is what a notification click should do.
type ClickKind int

const (
	// ClickNone does nothing.
	ClickNone ClickKind = iota
	// ClickFocus focuses an existing window.
	ClickFocus
	// ClickOpen opens a new window.
	ClickOpen
)

// ClickDecision is the resolved click action.
type ClickDecision struct {
	Kind   ClickKind
	Client WindowClient
	URL    string
}

// ResolveClick focuses the first window inside scope, otherwise opens the
// payload's deep link (falling back to data.url, then "/") when opening
// windows is possible.
func ResolveClick(clients []WindowClient, scope string, canOpen bool, data map[string]string) ClickDecision {
	for _, c := range clients {
		if scope != "" && strings.Contains(c.URL, scope) {
			return ClickDecision{Kind: ClickFocus, Client: c}
		}
	}
	if !canOpen {
		return ClickDecision{Kind: ClickNone}
	}
	return ClickDecision{Kind: ClickOpen, URL: firstNonEmpty(data["deepLink"], data["url"], "/")}
}
