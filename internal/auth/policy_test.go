package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDenyByDefault(t *testing.T) {
	policy := NewPolicy(nil)

	assert.Equal(t, RequireAuth, policy.Decide("GET", "/anything"))
	assert.Equal(t, RequireAuth, policy.Decide("POST", "/api/users/profile"))
}

func TestPolicyFirstMatchWins(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Method: "GET", Pattern: "/api/items/my-items", Access: RequireAuth},
		{Method: "GET", Pattern: "/api/items/**", Access: Public},
	})

	assert.Equal(t, RequireAuth, policy.Decide("GET", "/api/items/my-items"))
	assert.Equal(t, Public, policy.Decide("GET", "/api/items/lost"))
}

func TestPolicyMethodScoping(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Method: "GET", Pattern: "/api/items/**", Access: Public},
	})

	assert.Equal(t, Public, policy.Decide("GET", "/api/items/lost"))
	assert.Equal(t, RequireAuth, policy.Decide("POST", "/api/items/lost"))
	assert.Equal(t, RequireAuth, policy.Decide("DELETE", "/api/items/abc"))
}

func TestPolicyWildcardMatchesBaseAndChildren(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Method: "POST", Pattern: "/api/auth/**", Access: Public},
	})

	assert.Equal(t, Public, policy.Decide("POST", "/api/auth"))
	assert.Equal(t, Public, policy.Decide("POST", "/api/auth/login"))
	assert.Equal(t, Public, policy.Decide("POST", "/api/auth/refresh-token"))
	assert.Equal(t, RequireAuth, policy.Decide("POST", "/api/authx"))
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, Public, policy.Decide("POST", "/api/auth/login"))
	assert.Equal(t, Public, policy.Decide("GET", "/api/items/lost"))
	assert.Equal(t, Public, policy.Decide("GET", "/health"))
	assert.Equal(t, RequireAuth, policy.Decide("GET", "/api/items/my-items"))
	assert.Equal(t, RequireAuth, policy.Decide("GET", "/api/users/profile"))
	assert.Equal(t, RequireAuth, policy.Decide("POST", "/api/items/lost"))
}
