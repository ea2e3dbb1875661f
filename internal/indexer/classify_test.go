package indexer

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/adam-vessey/Alpaca/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		method      string
		disposition Disposition
		level       zapcore.Level
	}{
		{
			name:        "success",
			err:         nil,
			method:      http.MethodPost,
			disposition: Success,
			level:       zapcore.DebugLevel,
		},
		{
			name:        "parse failure is fatal",
			err:         &models.ParseError{Err: errors.New("bad json")},
			method:      http.MethodPost,
			disposition: Fatal,
			level:       zapcore.ErrorLevel,
		},
		{
			name:        "missing optional field skips",
			err:         &models.MissingFieldError{Field: models.FieldJSONURL, Optional: true},
			method:      http.MethodPost,
			disposition: Skip,
			level:       zapcore.WarnLevel,
		},
		{
			name:        "missing required field is fatal",
			err:         &models.MissingFieldError{Field: models.FieldCanonicalURL},
			method:      http.MethodPost,
			disposition: Fatal,
			level:       zapcore.ErrorLevel,
		},
		{
			name:        "412 skips regardless of budget",
			err:         &StatusError{Code: http.StatusPreconditionFailed},
			method:      http.MethodPost,
			disposition: Skip,
			level:       zapcore.InfoLevel,
		},
		{
			name:        "410 on update path skips",
			err:         &StatusError{Code: http.StatusGone},
			method:      http.MethodPost,
			disposition: Skip,
			level:       zapcore.WarnLevel,
		},
		{
			name:        "410 on delete path retries",
			err:         &StatusError{Code: http.StatusGone},
			method:      http.MethodDelete,
			disposition: Retry,
			level:       zapcore.ErrorLevel,
		},
		{
			name:        "404 on delete path skips",
			err:         &StatusError{Code: http.StatusNotFound},
			method:      http.MethodDelete,
			disposition: Skip,
			level:       zapcore.InfoLevel,
		},
		{
			name:        "404 on update path retries",
			err:         &StatusError{Code: http.StatusNotFound},
			method:      http.MethodPost,
			disposition: Retry,
			level:       zapcore.ErrorLevel,
		},
		{
			name:        "503 retries",
			err:         &StatusError{Code: http.StatusServiceUnavailable},
			method:      http.MethodPost,
			disposition: Retry,
			level:       zapcore.ErrorLevel,
		},
		{
			name:        "network error retries",
			err:         errors.New("connection refused"),
			method:      http.MethodPost,
			disposition: Retry,
			level:       zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disposition, level := Classify(tt.err, tt.method)
			require.Equal(t, tt.disposition, disposition)
			require.Equal(t, tt.level, level)
		})
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", &StatusError{Code: http.StatusPreconditionFailed})
	disposition, _ := Classify(wrapped, http.MethodPost)
	require.Equal(t, Skip, disposition)
}
