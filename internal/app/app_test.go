package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/karthik2365/data-cleaning/internal/config"
	"github.com/karthik2365/data-cleaning/internal/db"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:         "127.0.0.1:0",
		Env:                "test",
		SessionTTL:         time.Minute,
		SweepEvery:         time.Minute,
		ExecTimeout:        time.Second,
		ExecMaxSteps:       100_000,
		MaxProcessRows:     10_000,
		MaxUploadBytes:     1 << 20,
		SampleRows:         5,
		CORSAllowedOrigins: []string{"*"},
		Gen:                config.GenConfig{Model: "gpt-4o-mini", Timeout: time.Second},
	}
}

func TestNew_WiresEverything(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), Deps{
		Cfg:     testConfig(),
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	require.NoError(t, err)
	require.NotNil(t, a.server.Handler)
	require.NotNil(t, a.sweeper)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), Deps{
		Cfg:     testConfig(),
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
