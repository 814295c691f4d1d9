package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionAuthenticated(t *testing.T) {
	assert.False(t, Session{Source: TokenSourceNone}.Authenticated())
	assert.False(t, Session{RefreshToken: "ref", Source: TokenSourceCookie}.Authenticated())
	assert.True(t, Session{AccessToken: "tok", Source: TokenSourceHeader}.Authenticated())
}
