package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/vocalyze/client-go/internal/infra/metrics"
)

// UploadFieldName is the multipart field the service expects the binary
// payload under.
const UploadFieldName = "audio_file"

// UploadFile is a binary payload to upload.
type UploadFile struct {
	Name        string
	ContentType string // defaults to application/octet-stream
	Data        []byte
}

// Upload sends file as a multipart POST to path, with extra scalar fields
// stringified alongside it. Progress is reported via onProgress as a
// rounded 0-100 percentage while the body is transmitted; it is
// best-effort and may be nil. Retries delegate to the regular executor
// path; the multipart body is materialized once and replayed per attempt.
func (c *Client) Upload(
	ctx context.Context,
	path string,
	file UploadFile,
	fields map[string]string,
	onProgress func(int),
) (*ResponseEnvelope, error) {
	if int64(len(file.Data)) > c.maxUploadBytes {
		return nil, &ErrorRecord{
			Kind: KindGeneric,
			Message: fmt.Sprintf("payload size %d exceeds maximum of %d bytes",
				len(file.Data), c.maxUploadBytes),
			Retryable: false,
		}
	}

	body, contentType, err := buildMultipart(file, fields)
	if err != nil {
		return nil, &ErrorRecord{
			Kind:      KindGeneric,
			Message:   err.Error(),
			Cause:     err,
			Retryable: false,
		}
	}

	desc := NewRequest(http.MethodPost, path)
	desc.Body = body
	desc.ContentType = contentType
	desc.Timeout = c.uploadTimeout
	desc.onProgress = onProgress

	env, doErr := c.Do(ctx, desc)
	if doErr == nil {
		metrics.UploadBytesTotal.Add(float64(len(file.Data)))
	}
	return env, doErr
}

func buildMultipart(file UploadFile, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`,
			UploadFieldName, escapeQuotes(file.Name)))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write multipart file part: %w", err)
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// progressReader reports transmission progress as a rounded percentage,
// calling back only when the value changes.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(math.Round(float64(p.read) / float64(p.total) * 100))
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return n, err
}
