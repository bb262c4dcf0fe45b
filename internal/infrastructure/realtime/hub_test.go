package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedVersion int64

func (v fixedVersion) Current(uuid.UUID) int64 { return int64(v) }

func receiveNotification(t *testing.T, ch <-chan []byte) Notification {
	t.Helper()
	select {
	case message := <-ch:
		var notification Notification
		require.NoError(t, json.Unmarshal(message, &notification))
		return notification
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func TestHubCoalescesBurstIntoOneNotification(t *testing.T) {
	hub := NewHub(fixedVersion(7), logrus.New())
	ownerID := uuid.New()
	ch, cancel := hub.Subscribe(ownerID)
	defer cancel()

	hub.Publish(repository.MutationEvent{OwnerID: ownerID, Kind: enum.KindSale, Action: enum.AuditActionCreate, RecordID: uuid.New()})
	hub.Publish(repository.MutationEvent{OwnerID: ownerID, Kind: enum.KindProduct, Action: enum.AuditActionUpdate, RecordID: uuid.New()})
	hub.Publish(repository.MutationEvent{OwnerID: ownerID, Kind: enum.KindSale, Action: enum.AuditActionCreate, RecordID: uuid.New()})

	notification := receiveNotification(t, ch)
	assert.Equal(t, "records_changed", notification.Type)
	assert.ElementsMatch(t, []enum.RecordKind{enum.KindSale, enum.KindProduct}, notification.Kinds)
	assert.Equal(t, int64(7), notification.DataVersion)

	select {
	case extra := <-ch:
		t.Fatalf("expected a single coalesced notification, got another: %s", extra)
	case <-time.After(2 * coalesceWindow):
	}
}

func TestHubScopesNotificationsToOwner(t *testing.T) {
	hub := NewHub(nil, logrus.New())
	ownerA := uuid.New()
	ownerB := uuid.New()

	chA, cancelA := hub.Subscribe(ownerA)
	defer cancelA()
	chB, cancelB := hub.Subscribe(ownerB)
	defer cancelB()

	hub.Publish(repository.MutationEvent{OwnerID: ownerA, Kind: enum.KindExpense, Action: enum.AuditActionCreate, RecordID: uuid.New()})

	notification := receiveNotification(t, chA)
	assert.ElementsMatch(t, []enum.RecordKind{enum.KindExpense}, notification.Kinds)

	select {
	case <-chB:
		t.Fatal("other owner's subscriber must not be notified")
	case <-time.After(2 * coalesceWindow):
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(nil, logrus.New())
	ownerID := uuid.New()

	ch, cancel := hub.Subscribe(ownerID)
	assert.Equal(t, 1, hub.SubscriberCount(ownerID))

	cancel()
	assert.Zero(t, hub.SubscriberCount(ownerID))

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice must be safe.
	cancel()
}

func TestHubSeparateBurstsProduceSeparateNotifications(t *testing.T) {
	hub := NewHub(nil, logrus.New())
	ownerID := uuid.New()
	ch, cancel := hub.Subscribe(ownerID)
	defer cancel()

	hub.Publish(repository.MutationEvent{OwnerID: ownerID, Kind: enum.KindDebt, Action: enum.AuditActionCreate, RecordID: uuid.New()})
	first := receiveNotification(t, ch)
	assert.ElementsMatch(t, []enum.RecordKind{enum.KindDebt}, first.Kinds)

	hub.Publish(repository.MutationEvent{OwnerID: ownerID, Kind: enum.KindDebtPayment, Action: enum.AuditActionPayment, RecordID: uuid.New()})
	second := receiveNotification(t, ch)
	assert.ElementsMatch(t, []enum.RecordKind{enum.KindDebtPayment}, second.Kinds)
}
