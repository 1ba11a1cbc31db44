package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_BurstThenDeny(t *testing.T) {
	krl := New(1, 2)

	require.True(t, krl.Allow("1.2.3.4"))
	require.True(t, krl.Allow("1.2.3.4"))
	require.False(t, krl.Allow("1.2.3.4"))
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	krl := New(1, 1)

	require.True(t, krl.Allow("1.2.3.4"))
	require.False(t, krl.Allow("1.2.3.4"))

	// A different client still has its full burst.
	require.True(t, krl.Allow("5.6.7.8"))
}
