// Package domain defines the data types exchanged with the voice analysis service.
package domain

// EmotionAnalysis holds the emotion scores detected in a transcription.
type EmotionAnalysis struct {
	PrimaryEmotion string             `json:"primary_emotion"`
	Confidence     float64            `json:"confidence"`
	Emotions       map[string]float64 `json:"emotions"`
}

// SentimentAnalysis holds the overall sentiment of a transcription.
type SentimentAnalysis struct {
	Label string  `json:"label"` // positive, negative, neutral
	Score float64 `json:"score"`
}

// AnalysisResult is the response of the audio processing endpoint.
type AnalysisResult struct {
	Transcription     string            `json:"transcription"`
	EmotionAnalysis   EmotionAnalysis   `json:"emotion_analysis"`
	SentimentAnalysis SentimentAnalysis `json:"sentiment_analysis"`
}

// HealthResponse is the response of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
