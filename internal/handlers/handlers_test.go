package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	applog "recipebox/internal/log"
)

func TestWriteJSONLogsEncodeFailureWithContext(t *testing.T) {
	buf := new(bytes.Buffer)
	original := applog.Logger()
	applog.ReplaceLogger(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() {
		applog.ReplaceLogger(original)
	})

	// Channels cannot be marshalled, forcing the encode error path.
	w := httptest.NewRecorder()
	writeJSON(context.Background(), w, 200, map[string]any{"ch": make(chan int)})

	if !strings.Contains(buf.String(), "failed to encode json response") {
		t.Fatalf("expected encode failure to be logged, got %q", buf.String())
	}
}
