package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-feed-service/internal/config"
	"github.com/couchcryptid/quake-feed-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	record := domain.PresentedRecord{
		FormattedMagnitude: "6.8",
		PrimaryLocation:    "Cairo, Egypt",
		LocationOffset:     "10km NE of",
		FormattedDate:      "Jan 1, 2021",
		FormattedTime:      "12:00 AM",
		Severity:           domain.SeverityMagnitude6,
		DetailURL:          "https://earthquake.usgs.gov/earthquakes/eventpage/us1",
	}

	msg, err := serializeToMessage(record, now)
	require.NoError(t, err)

	assert.Equal(t, []byte(record.DetailURL), msg.Key)
	assert.Contains(t, string(msg.Value), `"severity":"magnitude6"`)
	assert.Contains(t, string(msg.Value), `"magnitude":"6.8"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "severity", msg.Headers[0].Key)
	assert.Equal(t, []byte("magnitude6"), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestNewWriter_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "quakes"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "quakes", w.writer.Topic)
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "quakes"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.NoError(t, w.Publish(context.Background(), nil))
}
