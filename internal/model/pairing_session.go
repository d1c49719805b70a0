package model

import "time"

// Pairing session states as stored in pairing_sessions.status.  A session is
// created PENDING when the desktop role asks to start pairing, moves to
// COMPLETED exactly once when a mobile submission links a card, and becomes
// EXPIRED when its bounded wait elapses before any submission arrives.
const (
    SessionPending   = "PENDING"
    SessionCompleted = "COMPLETED"
    SessionExpired   = "EXPIRED"
)

// PairingSession represents one in-progress attempt to link a card to a
// user, as stored in the `pairing_sessions` table.  At most one PENDING
// session per user is meaningful; a repeated start refreshes the existing
// one instead of creating a divergent session.
//
// Fields:
//  ID          – opaque session identifier (UUID).
//  UserID      – owner of the session.
//  Status      – PENDING, COMPLETED or EXPIRED.
//  CardID      – canonical serial of the linked card; set only once COMPLETED.
//  CreatedAt   – timestamp of creation.
//  ExpiresAt   – moment after which a PENDING session counts as EXPIRED.
//  CompletedAt – set when the session transitions to COMPLETED.
type PairingSession struct {
    ID          string     // pairing_sessions.id
    UserID      uint64     // pairing_sessions.user_id
    Status      string     // pairing_sessions.status
    CardID      string     // pairing_sessions.card_id (nullable)
    CreatedAt   time.Time  // pairing_sessions.created_at
    ExpiresAt   time.Time  // pairing_sessions.expires_at
    CompletedAt *time.Time // pairing_sessions.completed_at (nullable)
}
