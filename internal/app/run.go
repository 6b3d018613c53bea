package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"drowse/pkg/logging"
)

// ShutdownTimeout bounds the graceful shutdown of the daemon.
const ShutdownTimeout = 30 * time.Second

func runDaemon(ctx context.Context, services *Services, ready chan struct{}) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Orchestrator.Start(ctx); err != nil {
		logging.Error("Bootstrap", err, "Failed to start orchestrator")
		return err
	}

	if err := services.Server.Start(); err != nil {
		logging.Error("Bootstrap", err, "Failed to start HTTP server")
		services.Orchestrator.Shutdown(context.Background())
		return err
	}

	if services.Watcher != nil {
		if err := services.Watcher.Start(ctx); err != nil {
			logging.Warn("Bootstrap", "Config hot reload disabled: %v", err)
			services.Watcher = nil
		}
	}

	notifySystemd(daemon.SdNotifyReady)
	close(ready)
	logging.Info("Bootstrap", "drowse is ready on %s. Press Ctrl+C to stop.", services.Server.Addr())

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Bootstrap", "Shutdown requested")
	case err, ok := <-services.Server.Err():
		if ok && err != nil {
			logging.Error("Bootstrap", err, "HTTP server failed")
			runErr = err
		}
	}

	notifySystemd(daemon.SdNotifyStopping)
	shutdown(services)
	return runErr
}

func shutdown(services *Services) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := services.Server.Stop(ctx); err != nil {
		logging.Warn("Bootstrap", "HTTP server did not shut down cleanly: %v", err)
	}
	if services.Watcher != nil {
		if err := services.Watcher.Stop(); err != nil {
			logging.Debug("Bootstrap", "Config watcher stop: %v", err)
		}
	}
	services.Orchestrator.Shutdown(ctx)
	logging.Info("Bootstrap", "Shutdown complete")
}

// notifySystemd is a no-op outside a Type=notify unit.
func notifySystemd(state string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}
	if _, err := daemon.SdNotify(false, state); err != nil {
		logging.Warn("Bootstrap", "sd_notify %q failed: %v", state, err)
	}
}
