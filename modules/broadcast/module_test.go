package broadcast

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/secure-chat-relay/events"
)

func TestRenderEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		event events.RoomEvent
		want  Envelope
	}{
		{
			name: "meta carries occupancy and secret",
			event: events.RoomEvent{
				Kind:             events.KindMeta,
				RoomID:           "lobby",
				TotalActiveUsers: 3,
				RoomSecret:       "s3cret",
			},
			want: Envelope{
				Type:             EnvelopeMeta,
				RoomID:           "lobby",
				TotalActiveUsers: 3,
				RoomSecret:       "s3cret",
			},
		},
		{
			name: "user message carries ciphertext verbatim",
			event: events.RoomEvent{
				Kind:        events.KindMessage,
				RoomID:      "lobby",
				UID:         "uid-1",
				Author:      "alice",
				Body:        "ciphertext-blob",
				DisplayTime: "10:01",
			},
			want: Envelope{
				Type:   EnvelopeMessage,
				RoomID: "lobby",
				UID:    "uid-1",
				Author: "alice",
				Body:   "ciphertext-blob",
				Time:   "10:01",
			},
		},
		{
			name: "announcement renders as a plaintext message",
			event: events.RoomEvent{
				Kind:   events.KindAnnouncement,
				RoomID: "lobby",
				UID:    "uid-2",
				Author: events.SystemAuthor,
				Body:   "bob has joined",
			},
			want: Envelope{
				Type:   EnvelopeMessage,
				RoomID: "lobby",
				UID:    "uid-2",
				Author: "admin",
				Body:   "bob has joined",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := renderEnvelope(tt.event)
			require.NoError(t, err)

			var got Envelope
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderEnvelope_UnknownKind(t *testing.T) {
	_, err := renderEnvelope(events.RoomEvent{Kind: "presence", RoomID: "lobby"})
	assert.Error(t, err)
}

func TestRenderEnvelope_MetaOmitsMessageFields(t *testing.T) {
	data, err := renderEnvelope(events.RoomEvent{
		Kind:             events.KindMeta,
		RoomID:           "lobby",
		TotalActiveUsers: 1,
		RoomSecret:       "s",
		// These must never leak into a meta envelope.
		Author: "alice",
		Body:   "stale",
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "author")
	assert.NotContains(t, raw, "body")
	assert.NotContains(t, raw, "uid")
}

func TestModule_HandleRoomEvent(t *testing.T) {
	module := NewModule()
	hub := module.GetHub()

	alice := addClient(hub, "A")
	bob := addClient(hub, "B")
	hub.JoinRoom("A", "lobby")
	hub.JoinRoom("B", "lobby")

	event := events.RoomEvent{
		Kind:                events.KindMessage,
		RoomID:              "lobby",
		ExcludeConnectionID: "B",
		UID:                 "uid-1",
		Author:              "bob",
		Body:                "ciphertext",
	}
	require.NoError(t, module.handleRoomEvent(context.Background(), event, nil))

	require.Len(t, alice.writes, 1)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(alice.writes[0], &envelope))
	assert.Equal(t, EnvelopeMessage, envelope.Type)
	assert.Equal(t, "bob", envelope.Author)

	assert.Empty(t, bob.writes, "sender exclusion holds through the event path")
}

func TestModule_HandleRoomEvent_MalformedNotRetried(t *testing.T) {
	module := NewModule()

	err := module.handleRoomEvent(context.Background(), events.RoomEvent{Kind: "bogus"}, nil)
	assert.NoError(t, err, "malformed events are dropped, not redelivered")
}
