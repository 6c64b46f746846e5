package tokensync

import (
	"context"
	"sync"

	"github.com/example/pushsync/internal/models"
)

type fakePermission struct {
	mu        sync.Mutex
	state     Permission
	onRequest Permission
	err       error
}

func (p *fakePermission) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePermission) Request(context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	if p.state == PermissionDefault && p.onRequest != "" {
		p.state = p.onRequest
	}
	return p.state, nil
}

type fakeTokens struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.token, f.err
}

func (f *fakeTokens) set(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

type managed struct {
	token  string
	action string
}

type fakeRegistrar struct {
	mu        sync.Mutex
	manageErr error
	calls     []managed
	testResp  *models.SendTestNotificationResponse
	testErr   error
	testArgs  []string
}

func (r *fakeRegistrar) ManageToken(_ context.Context, token, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, managed{token, action})
	return r.manageErr
}

func (r *fakeRegistrar) SendTest(_ context.Context, currentToken string) (*models.SendTestNotificationResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.testArgs = append(r.testArgs, currentToken)
	return r.testResp, r.testErr
}

func (r *fakeRegistrar) managedCalls() []managed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]managed(nil), r.calls...)
}
