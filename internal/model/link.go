package model

// StartStatus discriminates the result of starting a pairing session.  The
// operation never fails for a valid user; callers branch on the status
// instead of on an error.
type StartStatus string

const (
    StartStarted        StartStatus = "started"         // a fresh PENDING session was created
    StartAlreadyPending StartStatus = "already_pending" // an open session existed; its window was refreshed
    StartAlreadyLinked  StartStatus = "already_linked"  // the user already has a linked card
)

// LinkOutcome discriminates the result of submitting a card for a user.
// Only LinkedNew mutates the card binding; LinkedAlready is the idempotent
// re-submission of the user's own card.
type LinkOutcome int

const (
    LinkedNew         LinkOutcome = iota // card was durably bound to the user
    LinkedAlready                        // user re-submitted their own card, no change
    ConflictOtherUser                    // card is bound to a different user
    ConflictOwnCard                      // user already has a different card bound
)
