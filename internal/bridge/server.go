// Package bridge wires the FTP protocol engine to the document ingestion
// API: authentication, the write-only storage driver and the server
// lifecycle around them.
package bridge

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goftp.io/server/v2"

	"ftpbridge/internal/bridge/paperless"
	"ftpbridge/internal/bridge/upload"
	"ftpbridge/pkg/config"
	"ftpbridge/pkg/logger"
)

const healthCheckTimeout = 10 * time.Second

// RunServer validates the ingestion API connection, starts the FTP server
// and blocks until a shutdown signal or a server error. A failed health
// check returns before the listener is ever opened.
func RunServer(cfg *config.Config) error {
	log := logger.WithField("mode", "server")

	client := paperless.NewClient(cfg.Paperless.URL, cfg.Paperless.APIToken)

	// uploadCtx outlives individual sessions; cancelling it on shutdown
	// interrupts every in-flight upload. Already-submitted remote jobs are
	// abandoned, not cancelled.
	uploadCtx, cancelUploads := context.WithCancel(context.Background())
	defer cancelUploads()

	log.Info("validating ingestion API connection", "url", cfg.Paperless.URL)
	hctx, cancel := context.WithTimeout(uploadCtx, healthCheckTimeout)
	defer cancel()
	if err := client.HealthCheck(hctx); err != nil {
		return fmt.Errorf("ingestion API health check failed: %w", err)
	}
	log.Info("ingestion API connection validated")

	host, port, err := cfg.Server.SplitListenAddr()
	if err != nil {
		return err
	}

	driver := NewDriver(uploadCtx, upload.NewBridge(upload.NewStore(""), client))

	ftpServer, err := server.NewServer(&server.Options{
		Name:           cfg.Server.Name,
		WelcomeMessage: cfg.Server.Name,
		Driver:         driver,
		Auth:           &ftpAuth{auth: NewAuthenticator(cfg.Server.Username, cfg.Server.Password)},
		Perm:           server.NewSimplePerm("root", "root"),
		Hostname:       host,
		Port:           port,
		PassivePorts:   cfg.Server.PassivePorts,
		Logger:         newEngineLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to build FTP server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- ftpServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("FTP server started",
		"listen", cfg.Server.ListenAddr,
		"passivePorts", cfg.Server.PassivePorts)

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal, stopping server...", "signal", sig.String())
		cancelUploads()
		if err := ftpServer.Shutdown(); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("FTP server error: %w", err)
		}
	}

	log.Info("server stopped gracefully")
	return nil
}

// engineLogger exposes our logger to the FTP engine at DEBUG level; the
// engine's session chatter is diagnostics, not operational output.
type engineLogger struct {
	log *logger.Logger
}

var _ server.Logger = (*engineLogger)(nil)

func newEngineLogger() *engineLogger {
	return &engineLogger{log: logger.WithField("component", "ftp-engine")}
}

func (l *engineLogger) Print(sessionID string, message interface{}) {
	l.log.Debug(fmt.Sprint(message), "session", sessionID)
}

func (l *engineLogger) Printf(sessionID string, format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), "session", sessionID)
}

func (l *engineLogger) PrintCommand(sessionID string, command string, params string) {
	if command == "PASS" {
		params = "****"
	}
	l.log.Debug("ftp command", "session", sessionID, "command", command, "params", params)
}

func (l *engineLogger) PrintResponse(sessionID string, code int, message string) {
	l.log.Debug("ftp response", "session", sessionID, "code", code, "message", message)
}
