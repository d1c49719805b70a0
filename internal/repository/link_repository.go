package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/modtap/card-link/internal/model"
)

// LinkRepo owns the two shared mutable facts of the pairing protocol: which
// card (if any) is bound to a user, and whether a user has an open pairing
// session. Both are updated under a single transaction with row locks so
// that two concurrent submissions can never bind the same physical card to
// two different users.
//
// All timestamps are UTC; expiration comparisons use the database clock
// (UTC_TIMESTAMP()) so that multiple server instances agree on staleness.
type LinkRepo struct {
    db *sql.DB
}

// NewLinkRepo returns a new LinkRepo bound to the provided database.
func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{db: db} }

// expireStaleTx flips the user's PENDING sessions past their expires_at to
// EXPIRED. Expiry is checked lazily on the next touch of the user's
// pairing state rather than by a background reaper.
func (r *LinkRepo) expireStaleTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE pairing_sessions SET status=? WHERE user_id=? AND status=? AND expires_at <= UTC_TIMESTAMP()`,
        model.SessionExpired, userID, model.SessionPending,
    )
    return err
}

// StartSession opens (or refreshes) a pairing session for the user and
// returns a status discriminator. Starting twice before completion does not
// create two divergent sessions: the existing PENDING session is kept and
// its expiration window is pushed out. A user who already has a linked card
// gets already_linked and no session.
//
// sessionID is the id to assign if a fresh session is created; expiresAt
// bounds the pairing window. ErrUserNotFound is returned for unknown users.
func (r *LinkRepo) StartSession(ctx context.Context, userID uint64, sessionID string, expiresAt time.Time) (model.StartStatus, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return "", err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := r.expireStaleTx(ctx, tx, userID); err != nil {
        return "", err
    }

    // Lock the user row so a concurrent completion serializes behind us.
    var card sql.NullString
    err = tx.QueryRowContext(ctx,
        `SELECT card_id FROM users WHERE id=? FOR UPDATE`, userID,
    ).Scan(&card)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrUserNotFound
    }
    if err != nil {
        return "", err
    }
    if card.Valid && card.String != "" {
        if err := tx.Commit(); err != nil {
            return "", err
        }
        committed = true
        return model.StartAlreadyLinked, nil
    }

    var existingID string
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM pairing_sessions WHERE user_id=? AND status=? FOR UPDATE`,
        userID, model.SessionPending,
    ).Scan(&existingID)
    switch {
    case err == nil:
        // Refresh the open session instead of creating a second one.
        if _, err := tx.ExecContext(ctx,
            `UPDATE pairing_sessions SET expires_at=? WHERE id=?`,
            expiresAt.UTC().Format("2006-01-02 15:04:05"), existingID,
        ); err != nil {
            return "", err
        }
        if err := tx.Commit(); err != nil {
            return "", err
        }
        committed = true
        return model.StartAlreadyPending, nil
    case errors.Is(err, sql.ErrNoRows):
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO pairing_sessions (id, user_id, status, expires_at) VALUES (?,?,?,?)`,
            sessionID, userID, model.SessionPending, expiresAt.UTC().Format("2006-01-02 15:04:05"),
        ); err != nil {
            return "", err
        }
        if err := tx.Commit(); err != nil {
            return "", err
        }
        committed = true
        return model.StartStarted, nil
    default:
        return "", err
    }
}

// CompleteSession attempts to bind cardID (already canonical) to the user.
// The card-uniqueness check and the binding write happen under row locks in
// one transaction, so the outcome is decided atomically:
//
//   LinkedNew         – card was free and the user had none; binding written,
//                       the user's PENDING session (if any) moves to COMPLETED.
//   LinkedAlready     – the user re-submitted their own card; nothing changes.
//   ConflictOtherUser – the card is bound to someone else; nothing changes.
//   ConflictOwnCard   – the user already has a different card; nothing changes.
//
// A missing PENDING session does not fail the completion: the desktop's
// start call and the mobile's submission race deliberately, and the durable
// binding must win even when start never happened.
func (r *LinkRepo) CompleteSession(ctx context.Context, userID uint64, cardID string) (model.LinkOutcome, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := r.expireStaleTx(ctx, tx, userID); err != nil {
        return 0, err
    }

    var ownCard sql.NullString
    err = tx.QueryRowContext(ctx,
        `SELECT card_id FROM users WHERE id=? FOR UPDATE`, userID,
    ).Scan(&ownCard)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrUserNotFound
    }
    if err != nil {
        return 0, err
    }
    if ownCard.Valid && ownCard.String != "" {
        if err := tx.Commit(); err != nil {
            return 0, err
        }
        committed = true
        if ownCard.String == cardID {
            return model.LinkedAlready, nil
        }
        return model.ConflictOwnCard, nil
    }

    // Lock any existing binding of this card before deciding.
    var otherID uint64
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM users WHERE card_id=? FOR UPDATE`, cardID,
    ).Scan(&otherID)
    if err == nil {
        if errC := tx.Commit(); errC != nil {
            return 0, errC
        }
        committed = true
        return model.ConflictOtherUser, nil
    }
    if !errors.Is(err, sql.ErrNoRows) {
        return 0, err
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE users SET card_id=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
        cardID, userID,
    ); err != nil {
        // The unique index on users.card_id backstops the FOR UPDATE check.
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return model.ConflictOtherUser, nil
        }
        return 0, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE pairing_sessions SET status=?, card_id=?, completed_at=UTC_TIMESTAMP() WHERE user_id=? AND status=?`,
        model.SessionCompleted, cardID, userID, model.SessionPending,
    ); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return model.LinkedNew, nil
}

// GetSession returns the user's most recent pairing session in any state,
// or ErrNoSession when the user never started one.
func (r *LinkRepo) GetSession(ctx context.Context, userID uint64) (model.PairingSession, error) {
    var s model.PairingSession
    var card sql.NullString
    var completed sql.NullTime
    err := r.db.QueryRowContext(ctx,
        `SELECT id, user_id, status, card_id, created_at, expires_at, completed_at
           FROM pairing_sessions WHERE user_id=? ORDER BY created_at DESC LIMIT 1`,
        userID,
    ).Scan(&s.ID, &s.UserID, &s.Status, &card, &s.CreatedAt, &s.ExpiresAt, &completed)
    if errors.Is(err, sql.ErrNoRows) {
        return model.PairingSession{}, ErrNoSession
    }
    if err != nil {
        return model.PairingSession{}, err
    }
    if card.Valid {
        s.CardID = card.String
    }
    if completed.Valid {
        t := completed.Time
        s.CompletedAt = &t
    }
    // Expiry is lazy: the row is rewritten by the next write transaction,
    // but readers must never observe an overdue session as PENDING.
    if s.Status == model.SessionPending && !s.ExpiresAt.After(time.Now().UTC()) {
        s.Status = model.SessionExpired
    }
    return s, nil
}
