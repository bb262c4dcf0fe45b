// Package realtime fans successful mutations out to connected clients.
// Notifications carry no record data, only which collections changed and
// the owner's current data version; clients refetch what they care about.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// coalesceWindow is how long the hub holds back a notification so a burst
// of writes (a sale plus its stock decrement, a cascade delete) collapses
// into a single message per owner.
const coalesceWindow = 250 * time.Millisecond

// Notification is the wire message pushed to subscribers.
type Notification struct {
	Type        string            `json:"type"`
	Kinds       []enum.RecordKind `json:"kinds"`
	DataVersion int64             `json:"data_version"`
	Timestamp   time.Time         `json:"timestamp"`
}

// VersionSource reports the owner's current data version at flush time.
type VersionSource interface {
	Current(ownerID uuid.UUID) int64
}

type subscriber struct {
	ownerID uuid.UUID
	send    chan []byte
}

type pendingBatch struct {
	kinds map[enum.RecordKind]struct{}
	timer *time.Timer
}

// Hub tracks subscribers per owner and coalesces mutation events into
// change notifications. Slow subscribers are dropped rather than allowed
// to block the flush.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[*subscriber]struct{}
	pending     map[uuid.UUID]*pendingBatch
	versions    VersionSource
	log         *logrus.Logger
}

var _ repository.EventPublisher = (*Hub)(nil)

// NewHub creates the notification hub. versions may be nil, in which case
// notifications carry a zero data version.
func NewHub(versions VersionSource, log *logrus.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*subscriber]struct{}),
		pending:     make(map[uuid.UUID]*pendingBatch),
		versions:    versions,
		log:         log,
	}
}

// Subscribe registers a listener for one owner's changes and returns the
// channel notifications arrive on plus an unsubscribe func.
func (h *Hub) Subscribe(ownerID uuid.UUID) (<-chan []byte, func()) {
	sub := &subscriber{
		ownerID: ownerID,
		send:    make(chan []byte, 16),
	}

	h.mu.Lock()
	if h.subscribers[ownerID] == nil {
		h.subscribers[ownerID] = make(map[*subscriber]struct{})
	}
	h.subscribers[ownerID][sub] = struct{}{}
	h.mu.Unlock()

	return sub.send, func() { h.unsubscribe(sub) }
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subscribers[sub.ownerID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.send)
			if len(set) == 0 {
				delete(h.subscribers, sub.ownerID)
			}
		}
	}
}

// Publish records a mutation for the owner. The actual notification is
// deferred by the coalescing window so rapid writes produce one message.
func (h *Hub) Publish(event repository.MutationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	batch, ok := h.pending[event.OwnerID]
	if !ok {
		ownerID := event.OwnerID
		batch = &pendingBatch{kinds: make(map[enum.RecordKind]struct{})}
		batch.timer = time.AfterFunc(coalesceWindow, func() { h.flush(ownerID) })
		h.pending[event.OwnerID] = batch
	}
	batch.kinds[event.Kind] = struct{}{}
}

func (h *Hub) flush(ownerID uuid.UUID) {
	h.mu.Lock()
	batch, ok := h.pending[ownerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.pending, ownerID)

	kinds := make([]enum.RecordKind, 0, len(batch.kinds))
	for kind := range batch.kinds {
		kinds = append(kinds, kind)
	}

	var version int64
	if h.versions != nil {
		version = h.versions.Current(ownerID)
	}

	message, err := json.Marshal(Notification{
		Type:        "records_changed",
		Kinds:       kinds,
		DataVersion: version,
		Timestamp:   time.Now(),
	})
	if err != nil {
		h.mu.Unlock()
		h.log.WithError(err).Error("Failed to encode change notification")
		return
	}

	var dropped []*subscriber
	for sub := range h.subscribers[ownerID] {
		select {
		case sub.send <- message:
		default:
			// Subscriber is not draining; cut it loose.
			dropped = append(dropped, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range dropped {
		h.log.WithField("owner_id", ownerID).Warn("Dropping slow realtime subscriber")
		h.unsubscribe(sub)
	}
}

// SubscriberCount reports how many listeners an owner currently has.
func (h *Hub) SubscriberCount(ownerID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[ownerID])
}
