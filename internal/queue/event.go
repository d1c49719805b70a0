// Package queue defines message payloads exchanged over the message broker.
package queue

// CardLinkedEvent is published when a card is durably bound to a user. It
// carries enough for downstream consumers (audit logging, analytics,
// check-in devices warming their caches) without querying the primary
// database. It is emitted only for new bindings, never for idempotent
// re-submissions.
type CardLinkedEvent struct {
    UserID   uint64 `json:"user_id"`
    CardID   string `json:"card_id"` // canonical form
    LinkedAt string `json:"linked_at"`
}
