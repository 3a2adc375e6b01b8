package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxImageBytes bounds uploaded images.
const MaxImageBytes = 2 << 20

// ReadImageFile returns the bytes of the multipart file stored under field.
// ok is false when the form has no such file. The request form must be small
// enough to be parsed in memory.
func ReadImageFile(r *http.Request, field string) (data []byte, ok bool, err error) {
	if err := r.ParseMultipartForm(MaxImageBytes + 1<<20); err != nil {
		return nil, false, BadRequest(fmt.Sprintf("invalid multipart form: %v", err))
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, false, nil
		}
		return nil, false, BadRequest(fmt.Sprintf("invalid %q file: %v", field, err))
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		return nil, false, BadRequest("File too large")
	}
	data, err = io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, false, Internal("Failed to read upload", err)
	}
	if len(data) > MaxImageBytes {
		return nil, false, BadRequest("File too large")
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, false, BadRequest("The uploaded file must be an image")
	}
	return data, true, nil
}
