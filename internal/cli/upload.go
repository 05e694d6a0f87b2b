package cli

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vocalyze/client-go/internal/infra/api"
	"github.com/vocalyze/client-go/internal/voice"
)

var uploadLanguage string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an audio file for transcription and emotion analysis",
	Args:  cobra.ExactArgs(1),
	Run:   runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadLanguage, "language", "en", "language hint for transcription")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	svc := voice.New(newClient(cfg))

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read audio file", "path", path, "error", err)
		os.Exit(1)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := svc.ProcessAudio(context.Background(),
		api.UploadFile{
			Name:        filepath.Base(path),
			ContentType: contentType,
			Data:        data,
		},
		uploadLanguage,
		func(pct int) {
			fmt.Printf("\ruploading... %3d%%", pct)
		},
	)
	fmt.Println()
	if err != nil {
		slog.Error("Upload failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Transcription: %s\n", result.Transcription)
	fmt.Printf("Emotion:       %s (%.0f%%)\n",
		result.EmotionAnalysis.PrimaryEmotion, result.EmotionAnalysis.Confidence*100)
	fmt.Printf("Sentiment:     %s (%.0f%%)\n",
		result.SentimentAnalysis.Label, result.SentimentAnalysis.Score*100)
}
