// Package auth checks admin credentials.
//
// There is a single static operator identity and no session or token is
// issued: a successful check only tells the caller where to go next. Handlers
// depend on Authenticator so a real credential store can replace this later.
package auth

import (
	"context"
	"crypto/subtle"
)

// DashboardPath is where a successful login sends the operator.
const DashboardPath = "/admin/dashboard"

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) bool
}

// StaticAuthenticator compares against one configured username and password.
type StaticAuthenticator struct {
	username string
	password string
}

func NewStaticAuthenticator(username, password string) *StaticAuthenticator {
	return &StaticAuthenticator{username: username, password: password}
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}
