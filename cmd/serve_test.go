package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"

	"github.com/stretchr/testify/require"
)

// freeAddr reserves a loopback port and releases it so the server under
// test can bind it.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	return addr
}

// waitUntilServing polls the address until the server answers.
func waitUntilServing(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res, err := http.Get(url)
		if err == nil {
			_ = res.Body.Close()

			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", url)
}

func TestRunServer_DrainsInFlightAndRefusesNew(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	addr := freeAddr(t)
	inFlight := make(chan struct{})
	release := make(chan struct{})
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/slow" {
				close(inFlight)
				<-release
			}
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "done")
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- runServer(ctx, server, 5*time.Second)
	}()
	waitUntilServing(t, "http://"+addr+"/")

	type result struct {
		status int
		body   string
		err    error
	}
	slowRes := make(chan result, 1)
	go func() {
		res, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			slowRes <- result{err: err}

			return
		}
		defer func() { _ = res.Body.Close() }()
		b, _ := io.ReadAll(res.Body)
		slowRes <- result{status: res.StatusCode, body: string(b)}
	}()

	<-inFlight
	cancel()

	// the listener closes as soon as the drain starts; new connections
	// must be refused while the slow request is still in flight
	refusedBy := time.Now().Add(5 * time.Second)
	for {
		res, err := http.Get("http://" + addr + "/")
		if err != nil {
			break
		}
		_ = res.Body.Close()
		require.True(t, time.Now().Before(refusedBy), "listener still accepting after shutdown started")
		time.Sleep(10 * time.Millisecond)
	}

	close(release)

	got := <-slowRes
	require.NoError(t, got.err, "in-flight request must complete during the drain")
	require.Equal(t, http.StatusOK, got.status)
	require.Equal(t, "done", got.body)

	require.NoError(t, <-runErr, "a clean drain must not report an error")
}

func TestRunServer_BindFailure(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	// occupy the port so the server cannot bind it
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	server := &http.Server{Addr: ln.Addr().String(), Handler: http.NewServeMux()}

	err = runServer(context.Background(), server, time.Second)
	require.Error(t, err)
	require.ErrorContains(t, err, "could not serve")
}

func TestServeCommand_StoreFailureExitsBeforeBind(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	// a regular file where the store root should be makes construction fail
	root := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	addr := freeAddr(t)
	cfg := &config.Config{}
	cfg.Store.Root = root
	cfg.HTTP.Addr = addr

	c := serveCommand(cfg)
	err := c.RunE(c, nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "page store")

	// the failure happens before the listener is created
	_, err = net.DialTimeout("tcp", addr, 100*time.Millisecond)
	require.Error(t, err, "no socket may be bound when dependency construction fails")
}