// Package pairing implements the two client roles of the card-linking
// handshake. The Initiator is the desktop side: it opens a session, shows
// a QR deep link and listens on the user's channel for the terminal
// card_added event. The Responder is the mobile side: it reads a card
// serial from hardware (or manual entry), normalizes it and submits it.
//
// Both roles are plain state machines over injected transports, so they run
// the same way under tests, in the companion mobile app and in tooling.
package pairing

import "errors"

// Sentinel errors of the pairing flows. All of them are recoverable at the
// UI layer: none strands the user without a next action.
var (
    // ErrNotAuthenticated means no user identity was available to scope
    // the session. Recovered by prompting a login.
    ErrNotAuthenticated = errors.New("pairing: not authenticated")

    // ErrCapabilityUnavailable means the device lacks hardware scan
    // support. Recovered by falling back to manual entry.
    ErrCapabilityUnavailable = errors.New("pairing: nfc scanning not supported on this device")

    // ErrPermissionDenied means the user declined the hardware permission
    // prompt. Recovered by re-prompting or manual entry.
    ErrPermissionDenied = errors.New("pairing: nfc permission denied")

    // ErrNetwork means a request never reached the server. Recovered by
    // explicit user retry; the roles never retry silently to avoid
    // duplicate-submission ambiguity.
    ErrNetwork = errors.New("pairing: network error")

    // ErrEmptyCardID means a submission was attempted with no serial.
    ErrEmptyCardID = errors.New("pairing: card id is required")
)
