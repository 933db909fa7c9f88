package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventType names one message on the wire. Outbound and inbound types share
// the namespace; direction is fixed by the protocol, not the envelope.
type EventType string

// Client -> server.
const (
	EventRoomCreate    EventType = "room:create"
	EventRoomJoin      EventType = "room:join"
	EventRoomLeave     EventType = "room:leave"
	EventConfigUpdate  EventType = "room:config"
	EventGameStart     EventType = "game:start"
	EventAnswerSubmit  EventType = "answer:submit"
	EventRoundResults  EventType = "round:results"
	EventRoundNext     EventType = "round:next"
	EventGameSummary   EventType = "game:summary"
	EventChatMessage   EventType = "chat:message"
)

// Server -> client.
const (
	EventRoomCreated     EventType = "room:created"
	EventRoomJoined      EventType = "room:joined"
	EventPlayerJoined    EventType = "player:joined"
	EventPlayerLeft      EventType = "player:left"
	EventConfigUpdated   EventType = "room:config:updated"
	EventGameStarted     EventType = "game:started"
	EventRoundStarted    EventType = "round:started"
	EventRoundEnded      EventType = "round:ended"
	EventAnswerSubmitted EventType = "answer:submitted"
	EventRoundResultsOK  EventType = "round:results:success"
	EventGameSummaryOK   EventType = "game:summary:success"
	EventMessageSent     EventType = "message:sent"
	EventError           EventType = "error"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope stamps a fresh envelope around the given payload.
func NewEnvelope(eventType EventType, payload any) (Envelope, error) {
	env := Envelope{
		ID:   uuid.New().String(),
		Type: eventType,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		env.Data = data
	}
	return env, nil
}

// Decode unmarshals the envelope payload into dst.
func (e Envelope) Decode(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// ParseEventPayload parses the envelope data into the payload struct for its
// event type. Unknown types return (nil, nil) so callers can ignore them.
func ParseEventPayload(env Envelope) (any, error) {
	switch env.Type {
	case EventRoomCreated, EventRoomJoined:
		var payload Room
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventPlayerJoined:
		var payload PlayerJoinedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventPlayerLeft:
		var payload PlayerLeftPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventConfigUpdated:
		var payload ConfigUpdatedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventGameStarted, EventRoundStarted:
		var payload RoundStartedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventRoundEnded:
		var payload RoundEndedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventAnswerSubmitted:
		var payload AnswerSubmittedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventRoundResultsOK:
		var payload RoundResultsPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventGameSummaryOK:
		var payload GameSummaryPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventMessageSent:
		var payload ChatMessage
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventError:
		var payload ErrorPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil
	}
}
