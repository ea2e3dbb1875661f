package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	require.Equal(t, time.Duration(0), BackoffDelay(1))
	require.Equal(t, 1*time.Second, BackoffDelay(2))
	require.Equal(t, 2*time.Second, BackoffDelay(3))
	require.Equal(t, 60*time.Second, BackoffDelay(7))
}

func TestBackoffDelayClampsOutOfRange(t *testing.T) {
	require.Equal(t, time.Duration(0), BackoffDelay(0))
	require.Equal(t, time.Duration(0), BackoffDelay(-3))
	require.Equal(t, 60*time.Second, BackoffDelay(100))
}
