package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// stubRunner returns fixed results and remembers the settings it ran with.
type stubRunner struct {
	records  []domain.PresentedRecord
	err      error
	endpoint string
	settings domain.FilterSettings
	calls    int
}

func (s *stubRunner) Run(_ context.Context, endpoint string, settings domain.FilterSettings) ([]domain.PresentedRecord, error) {
	s.calls++
	s.endpoint = endpoint
	s.settings = settings
	return s.records, s.err
}
