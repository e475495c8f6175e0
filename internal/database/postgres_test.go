package database

import (
	"context"
	"testing"
	"time"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresConnectionRejectsBadConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "svc",
		DBName:  "finsight",
		SSLMode: "bogus",
	}

	_, err := NewPostgresConnection(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database config")
}

func TestNewPostgresConnectionUnreachable(t *testing.T) {
	// Port 1 answers with connection refused; the ping must surface it
	// instead of handing out a dead pool.
	cfg := config.DatabaseConfig{
		Host:    "127.0.0.1",
		Port:    1,
		User:    "svc",
		DBName:  "finsight",
		SSLMode: "disable",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewPostgresConnection(ctx, cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}
