package domain

// AudioFile describes a stored audio file on the remote service.
type AudioFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// AudioFileList is the response of the audio listing endpoint.
type AudioFileList struct {
	Files []AudioFile `json:"files"`
}

// DeleteResult is the response of the audio deletion endpoint.
type DeleteResult struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
}
