package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeOwner(t *testing.T) {
	tests := []struct {
		name   string
		owner  uint64
		caller uint64
		want   Decision
	}{
		{"owner", 1, 1, Allow},
		{"other user", 1, 2, Deny},
		{"anonymous caller", 1, 0, Deny},
		{"anonymous caller on ownerless resource", 0, 0, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorizeOwner(tt.owner, tt.caller))
		})
	}
}

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, RequireOwner(7, 7))
	assert.ErrorIs(t, RequireOwner(7, 8), ErrNotOwner)
}
