package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// File is a downloaded document.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadFile is the file part of a multipart upload.
type UploadFile struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

var extensions = map[string]string{
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
	"image/jpg":          ".jpg",
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"text/plain":                   ".txt",
	"application/zip":              ".zip",
	"application/x-rar-compressed": ".rar",
}

// Download fetches a binary document. The name comes from Content-Disposition;
// without one, fallbackName is used with an extension derived from the
// Content-Type.
func (c *Client) Download(ctx context.Context, path, fallbackName string) (*File, error) {
	data, header, err := c.send(ctx, http.MethodGet, path, nil, http.Header{}, Options{})
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	name := FilenameFromDisposition(header.Get("Content-Disposition"))
	if name == "" {
		name = fallbackName + extensionFor(contentType)
	}

	return &File{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Upload posts a multipart form made of fields plus one file and returns the
// JSON answer.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, file UploadFile) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", k, err)
		}
	}

	fieldName := file.FieldName
	if fieldName == "" {
		fieldName = "file"
	}

	part, err := w.CreateFormFile(fieldName, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("copying file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", w.FormDataContentType())

	raw, _, err := c.send(ctx, http.MethodPost, path, &buf, header, Options{})
	if err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(raw) {
		return nil, Malformed(http.MethodPost, path, fmt.Errorf("upload answer is not valid JSON"))
	}

	return raw, nil
}

// FilenameFromDisposition extracts the file name of a Content-Disposition
// header, preferring the RFC 5987 filename* parameter. It returns "" when
// there is none.
func FilenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}

	// ParseMediaType decodes filename* and drops it into "filename".
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	// Lenient fallback for headers ParseMediaType rejects, such as
	// unquoted names containing spaces.
	for part := range strings.SplitSeq(disposition, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if value != "" {
			return value
		}
	}

	return ""
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	return extensions[strings.ToLower(mediaType)]
}
