package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownSignals_SIGTERMCancelsServeContext(t *testing.T) {
	assert.Contains(t, shutdownSignals, os.Interrupt)
	assert.Contains(t, shutdownSignals, os.Signal(syscall.SIGTERM))

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("SIGTERM did not cancel the context")
	}
}
