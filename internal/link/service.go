// Package link implements the card-link session service: the server-side
// coordinator between the desktop pairing role (which starts a session and
// listens) and the mobile pairing role (which submits a scanned card).
package link

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/modtap/card-link/internal/cardid"
    "github.com/modtap/card-link/internal/model"
    "github.com/modtap/card-link/internal/realtime"
)

// Store is the persistence contract the service coordinates over. Both
// methods must be atomic: StartSession must never produce two divergent
// pending sessions for one user, and CompleteSession must decide the
// card-uniqueness outcome under the same critical section that writes the
// binding. repository.LinkRepo is the production implementation.
type Store interface {
    StartSession(ctx context.Context, userID uint64, sessionID string, expiresAt time.Time) (model.StartStatus, error)
    CompleteSession(ctx context.Context, userID uint64, cardID string) (model.LinkOutcome, error)
}

// AuditFunc receives a durable notification for every newly linked card,
// typically backed by the message broker. It is best-effort: failures are
// logged and never surface to the submitting client.
type AuditFunc func(ctx context.Context, userID uint64, cardID string, linkedAt time.Time)

// Service orchestrates pairing sessions. The realtime publish happens only
// after the store call has returned, which is what guarantees
// publish-after-persist: by the time a desktop sees card_added, any read of
// the store already reflects the binding.
type Service struct {
    store     Store
    publisher realtime.Publisher
    ttl       time.Duration
    audit     AuditFunc
    now       func() time.Time
}

// NewService builds a Service. audit may be nil when no broker is
// configured. ttl bounds the pairing window of a pending session.
func NewService(store Store, publisher realtime.Publisher, ttl time.Duration, audit AuditFunc) *Service {
    return &Service{
        store:     store,
        publisher: publisher,
        ttl:       ttl,
        audit:     audit,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// StartResult is the discriminated response of Start.
type StartResult struct {
    Status    model.StartStatus
    ExpiresAt time.Time
}

// Start opens or refreshes the user's pairing session. It is idempotent:
// repeated starts before completion refresh the same pending session.
func (s *Service) Start(ctx context.Context, userID uint64) (StartResult, error) {
    expiresAt := s.now().Add(s.ttl)
    status, err := s.store.StartSession(ctx, userID, uuid.NewString(), expiresAt)
    if err != nil {
        return StartResult{}, err
    }
    return StartResult{Status: status, ExpiresAt: expiresAt}, nil
}

// CompleteResult is the discriminated response of Complete. Message is
// human-readable and surfaced verbatim to the mobile user.
type CompleteResult struct {
    Success bool
    Message string
    CardID  string
}

// Complete normalizes the submitted serial and attempts to bind it to the
// user. On success (including the idempotent re-submission of the user's
// own card) exactly one card_added message is published to the user's
// channel, strictly after the binding is durable. Conflicts leave all
// existing bindings untouched and report a non-retryable message.
func (s *Service) Complete(ctx context.Context, userID uint64, rawCardID string) (CompleteResult, error) {
    cardID := cardid.Normalize(rawCardID)
    outcome, err := s.store.CompleteSession(ctx, userID, cardID)
    if err != nil {
        return CompleteResult{}, err
    }

    switch outcome {
    case model.LinkedNew, model.LinkedAlready:
        // The store has committed; the push may now be observed.
        msg := realtime.Message{
            Event:   realtime.EventCardAdded,
            Payload: realtime.CardAddedPayload{CardID: cardID},
        }
        if err := s.publisher.Publish(ctx, realtime.UserChannel(userID), msg); err != nil {
            // The binding is durable either way; the desktop falls back to
            // rechecking the profile.
            log.Printf("link: publish card_added for user %d failed: %v", userID, err)
        }
        if outcome == model.LinkedNew && s.audit != nil {
            s.audit(ctx, userID, cardID, s.now())
        }
        message := "Card linked successfully."
        if outcome == model.LinkedAlready {
            message = "Card is already linked to your account."
        }
        return CompleteResult{Success: true, Message: message, CardID: cardID}, nil
    case model.ConflictOtherUser:
        return CompleteResult{
            Success: false,
            Message: "This card is already assigned to a user.",
            CardID:  cardID,
        }, nil
    case model.ConflictOwnCard:
        return CompleteResult{
            Success: false,
            Message: "A different card is already linked to your account.",
            CardID:  cardID,
        }, nil
    }
    return CompleteResult{}, errUnknownOutcome
}

var errUnknownOutcome = errors.New("link: unknown store outcome")
