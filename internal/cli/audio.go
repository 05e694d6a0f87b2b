package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vocalyze/client-go/internal/voice"
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Manage audio files stored on the service",
}

var audioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored audio files",
	Run:   runAudioList,
}

var audioGetCmd = &cobra.Command{
	Use:   "get <id> <output>",
	Short: "Download a stored audio file",
	Args:  cobra.ExactArgs(2),
	Run:   runAudioGet,
}

var audioDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored audio file",
	Args:  cobra.ExactArgs(1),
	Run:   runAudioDelete,
}

func init() {
	audioCmd.AddCommand(audioListCmd, audioGetCmd, audioDeleteCmd)
	rootCmd.AddCommand(audioCmd)
}

func runAudioList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	svc := voice.New(newClient(cfg))

	files, err := svc.ListAudio(context.Background())
	if err != nil {
		slog.Error("Failed to list audio files", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSIZE\tTYPE")
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Name, f.Size, f.MimeType)
	}
	_ = w.Flush()
}

func runAudioGet(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	svc := voice.New(newClient(cfg))

	out, err := os.Create(args[1])
	if err != nil {
		slog.Error("Failed to create output file", "path", args[1], "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = out.Close()
	}()

	n, err := svc.DownloadAudio(context.Background(), args[0], out)
	if err != nil {
		slog.Error("Download failed", "id", args[0], "error", err)
		os.Exit(1)
	}
	slog.Info("Downloaded audio file", "id", args[0], "bytes", n, "path", args[1])
}

func runAudioDelete(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	svc := voice.New(newClient(cfg))

	result, err := svc.DeleteAudio(context.Background(), args[0])
	if err != nil {
		slog.Error("Delete failed", "id", args[0], "error", err)
		os.Exit(1)
	}
	slog.Info(result.Message, "id", result.FileID)
}
