package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocalyze/client-go/internal/infra/api"
	"github.com/vocalyze/client-go/internal/voice"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Probe service endpoints and report reachability",
	Run:   runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := newClient(cfg)
	svc := voice.New(client)
	ctx := context.Background()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHECK\tRESULT\tDETAIL")

	start := time.Now()
	if _, err := svc.Health(ctx); err != nil {
		_, _ = fmt.Fprintf(w, "health\tFAIL\t%v\n", err)
	} else {
		_, _ = fmt.Fprintf(w, "health\tOK\t%v\n", time.Since(start).Round(time.Millisecond))
	}

	// CORS preflight of the endpoints a browser client would hit
	for _, path := range []string{"/process-audio", "/api/audio"} {
		header, err := svc.Preflight(ctx, path)
		if err != nil {
			_, _ = fmt.Fprintf(w, "preflight %s\tFAIL\t%v\n", path, err)
			continue
		}
		allow := header.Get("Allow")
		if allow == "" {
			allow = header.Get("Access-Control-Allow-Methods")
		}
		_, _ = fmt.Fprintf(w, "preflight %s\tOK\t%s\n", path, allow)
	}

	probe := api.NewRequest(http.MethodGet, api.HealthPath)
	probe.Timeout = cfg.Monitor.ProbeTimeout
	if env, err := client.DoOnce(ctx, probe); err != nil {
		_, _ = fmt.Fprintf(w, "single probe\tFAIL\t%v\n", err)
	} else {
		_, _ = fmt.Fprintf(w, "single probe\tOK\t%v\n", env.Elapsed.Round(time.Millisecond))
	}

	_ = w.Flush()
	slog.Info("Diagnostics complete", "base_url", cfg.API.BaseURL)
}
