package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "user registered",
			event: Event{
				EventType: EventUserRegistered,
				User:      "Alice",
				Provider:  "deepface",
				Success:   true,
				Metadata:  map[string]string{"faces": "1"},
			},
		},
		{
			name: "user deleted",
			event: Event{
				EventType: EventUserDeleted,
				User:      "Bob",
				Provider:  "deepface",
				Success:   true,
			},
		},
		{
			name: "failed match check",
			event: Event{
				EventType: EventMatchChecked,
				Provider:  "mock",
				Success:   false,
				Error:     "No face detected, please try again",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedLogger()

			require.NoError(t, logger.Log(context.Background(), tt.event))

			var line map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

			assert.Equal(t, "audit_event", line["msg"])
			assert.Equal(t, "audit", line["component"])
			assert.Equal(t, string(tt.event.EventType), line["event_type"])
			assert.Equal(t, tt.event.Provider, line["provider"])
			assert.Equal(t, tt.event.Success, line["success"])

			var event Event
			require.NoError(t, json.Unmarshal([]byte(line["event_data"].(string)), &event))
			assert.NotEqual(t, uuid.Nil, event.ID)
			assert.False(t, event.Timestamp.IsZero())
			assert.Equal(t, tt.event.User, event.User)
			assert.Equal(t, tt.event.Error, event.Error)
		})
	}
}

func TestSlogLogger_KeepsProvidedIDAndTimestamp(t *testing.T) {
	logger, buf := newBufferedLogger()
	id := uuid.New()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, logger.Log(context.Background(), Event{
		ID:        id,
		Timestamp: ts,
		EventType: EventMatchChecked,
	}))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, id.String(), line["event_id"])

	var event Event
	require.NoError(t, json.Unmarshal([]byte(line["event_data"].(string)), &event))
	assert.True(t, ts.Equal(event.Timestamp))
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	assert.NoError(t, l.Log(context.Background(), Event{EventType: EventUserDeleted}))
}
