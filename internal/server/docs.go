package server

import (
	"fmt"
	"net/http"
	"strings"
)

// usageText renders the plain-text instructions served at the root
// endpoint. The base URL, size ceiling and expiry come from the injected
// configuration so the text always matches the running deployment.
func usageText(cfg Config) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return fmt.Sprintf(`# Cloud Mover

Temporary file relay. Upload an encrypted archive, pass the verification
code to the other machine, download it there. Files are deleted after
%s whether or not they were retrieved.

Max file size: %d MB
Expiry: %s

The server never decrypts anything. Protect the archive with a password
before uploading; the code identifies the file, the password protects it.

## Upload

    curl -F "file=@backup.zip" %s/upload

Response:

    {"code": "abc123", "expires_at": "..."}

## Download

    curl -o backup.zip %s/download/CODE

## Status

    curl %s/status/CODE

Returns size and expiry for a live code, 404 otherwise.
`,
		cfg.Expiry,
		cfg.MaxUploadBytes>>20,
		cfg.Expiry,
		base, base, base,
	)
}

// docsHandler serves the usage instructions at GET /.
func (cfg Config) docsHandler() http.HandlerFunc {
	text := usageText(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}
}
