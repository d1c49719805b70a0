// Package realtime implements the per-user notification channel the desktop
// pairing role listens on. Messages are published by the link service after
// a card binding is durably recorded and fan out to every live subscriber
// of the user's channel, locally through the Hub and across instances
// through the optional Redis bridge.
package realtime

import (
    "context"
    "encoding/json"
    "strconv"
)

// EventCardAdded is the terminal event of a pairing session. Its payload
// carries the normalized card identifier that was linked.
const EventCardAdded = "card_added"

// userChannelPrefix is the fixed prefix of per-user channel names.
const userChannelPrefix = "user_"

// Message is the envelope delivered on a channel.
type Message struct {
    Event   string `json:"event"`
    Payload any    `json:"payload"`
}

// CardAddedPayload is the payload of an EventCardAdded message.
type CardAddedPayload struct {
    CardID string `json:"cardId"`
}

// DecodeCardAdded extracts the payload of a card_added message. Depending
// on how the message travelled it may hold a typed payload (in-process hub)
// or raw JSON (Redis bridge, WebSocket client); both are handled. The
// second return is false when the message is not a card_added event or the
// payload is unusable.
func DecodeCardAdded(msg Message) (CardAddedPayload, bool) {
    if msg.Event != EventCardAdded {
        return CardAddedPayload{}, false
    }
    switch p := msg.Payload.(type) {
    case CardAddedPayload:
        return p, true
    case *CardAddedPayload:
        return *p, true
    case json.RawMessage:
        var out CardAddedPayload
        if err := json.Unmarshal(p, &out); err != nil {
            return CardAddedPayload{}, false
        }
        return out, true
    case []byte:
        var out CardAddedPayload
        if err := json.Unmarshal(p, &out); err != nil {
            return CardAddedPayload{}, false
        }
        return out, true
    case map[string]any:
        if id, ok := p["cardId"].(string); ok {
            return CardAddedPayload{CardID: id}, true
        }
    }
    return CardAddedPayload{}, false
}

// UserChannel derives the channel name for a user id, e.g. "user_42".
func UserChannel(userID uint64) string {
    return userChannelPrefix + strconv.FormatUint(userID, 10)
}

// Publisher is the outbound half of the channel, consumed by the link
// service. Hub satisfies it directly; RedisBridge satisfies it for
// multi-instance deployments.
type Publisher interface {
    Publish(ctx context.Context, channel string, msg Message) error
}
