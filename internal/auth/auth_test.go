package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator("admin", "admin123")
	ctx := context.Background()

	assert.True(t, a.Authenticate(ctx, "admin", "admin123"))
	assert.False(t, a.Authenticate(ctx, "admin", "admin12"))
	assert.False(t, a.Authenticate(ctx, "Admin", "admin123"))
	assert.False(t, a.Authenticate(ctx, "", ""))
	assert.False(t, a.Authenticate(ctx, "admin", "admin123 "))
}
