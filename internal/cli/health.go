package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocalyze/client-go/internal/infra/api"
	"github.com/vocalyze/client-go/internal/infra/statusserver"
	"github.com/vocalyze/client-go/internal/voice"
)

var watchMode bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the analysis service",
	Run:   runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&watchMode, "watch", false, "keep monitoring until interrupted")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newClient(cfg)

	if !watchMode {
		svc := voice.New(client)
		start := time.Now()
		resp, err := svc.Health(context.Background())
		if err != nil {
			var rec *api.ErrorRecord
			if errors.As(err, &rec) {
				slog.Error("Service unreachable", "kind", rec.Kind.String(), "error", rec.Message)
			} else {
				slog.Error("Service unreachable", "error", err)
			}
			os.Exit(1)
		}
		fmt.Printf("%s (%s) in %v\n", resp.Status, resp.Message, time.Since(start).Round(time.Millisecond))
		return
	}

	monitor := api.NewMonitor(client, cfg.Monitor.Interval, cfg.Monitor.ProbeTimeout, slog.Default())
	unsubscribe := monitor.Subscribe(func(s api.ConnectionStatus) {
		switch s.State {
		case api.StateConnected:
			slog.Info("Connected", "latency", s.Latency.Round(time.Millisecond))
		case api.StateDisconnected:
			slog.Warn("Disconnected", "error", s.LastError)
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)
	defer monitor.Close()

	var server *statusserver.Server
	if cfg.Monitor.Listen != "" {
		server = statusserver.NewServer(monitor, cfg.Monitor.Listen)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Status server failed", "error", err)
			}
		}()
		slog.Info("Status server listening", "addr", cfg.Monitor.Listen)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}
}
