package realtime

import (
    "context"
    "sync"
)

// subscriptionBuffer is the per-subscriber queue depth. Pairing channels
// carry a single terminal message, so a small buffer is enough; a slow
// consumer drops messages rather than blocking the publisher.
const subscriptionBuffer = 8

// Hub is an in-process channel registry: channel name -> set of live
// subscriptions. It is safe for concurrent use. Duplicate subscriptions on
// the same channel are allowed; each receives its own copy of every message.
type Hub struct {
    mu   sync.RWMutex
    subs map[string]map[*Subscription]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
    return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is one live listener on a channel. Receive from C until it
// is closed. Close is idempotent and guarantees that no further messages
// are delivered after it returns.
type Subscription struct {
    C       chan Message
    hub     *Hub
    channel string
    once    sync.Once
}

// Subscribe registers a new listener on the named channel.
func (h *Hub) Subscribe(channel string) *Subscription {
    sub := &Subscription{
        C:       make(chan Message, subscriptionBuffer),
        hub:     h,
        channel: channel,
    }
    h.mu.Lock()
    set, ok := h.subs[channel]
    if !ok {
        set = make(map[*Subscription]struct{})
        h.subs[channel] = set
    }
    set[sub] = struct{}{}
    h.mu.Unlock()
    return sub
}

// Close removes the subscription from the hub and closes its channel. After
// Close returns the subscription receives nothing further. The channel is
// closed under the hub lock so it can never race a concurrent Publish send.
func (s *Subscription) Close() {
    s.once.Do(func() {
        h := s.hub
        h.mu.Lock()
        if set, ok := h.subs[s.channel]; ok {
            delete(set, s)
            if len(set) == 0 {
                delete(h.subs, s.channel)
            }
        }
        close(s.C)
        h.mu.Unlock()
    })
}

// Publish delivers msg to every current subscriber of the channel. Delivery
// is best-effort: a subscriber whose buffer is full is skipped. Publish
// never blocks and never fails; the error return exists to satisfy
// Publisher.
func (h *Hub) Publish(_ context.Context, channel string, msg Message) error {
    h.mu.RLock()
    for sub := range h.subs[channel] {
        select {
        case sub.C <- msg:
        default:
        }
    }
    h.mu.RUnlock()
    return nil
}

// Count reports the number of live subscriptions on a channel.
func (h *Hub) Count(channel string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.subs[channel])
}
