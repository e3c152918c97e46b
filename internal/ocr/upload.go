package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxUploadBytes caps one multipart image upload.
const maxUploadBytes = 20 << 20 // 20 MB

type upload struct {
	data     []byte
	filename string
	mime     string
}

// readImageUpload pulls the "file" part out of a multipart request and
// sniffs its content type.
func readImageUpload(r *http.Request) (*upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parsing multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", maxUploadBytes)
	}

	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return nil, fmt.Errorf("unsupported image type %s (want JPEG or PNG)", mime)
	}

	return &upload{data: data, filename: header.Filename, mime: mime}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
