package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func book(t *testing.T, store *storage.MemoryStore, name string) *models.Booking {
	t.Helper()
	b, err := store.InsertBooking(context.Background(), &models.BookingPayload{
		PropertyID: "p-1", PropertyName: "Sunny Loft", UserName: name, UserPhone: "555-0100",
	})
	require.NoError(t, err)
	return b
}

func TestBookingNotifierSkipsExistingBookings(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))
	book(t, store, "Old Guest")

	sender := &fakeSender{}
	n := NewBookingNotifier(sender, []int64{10, 20}, utils.NewWorkerPool(2, 0), utils.NewDiscardLogger())
	unsub := n.Start(store)
	defer unsub()

	n.Wait()
	assert.Empty(t, sender.messages())

	book(t, store, "New Guest")
	n.Wait()

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	chats := []int64{msgs[0].ChatID, msgs[1].ChatID}
	assert.ElementsMatch(t, []int64{10, 20}, chats)
	assert.Contains(t, msgs[0].Text, "New Guest")
	assert.NotContains(t, msgs[0].Text, "Old Guest")
}

func TestBookingNotifierAnnouncesEachBookingOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))

	sender := &fakeSender{}
	n := NewBookingNotifier(sender, []int64{10}, utils.NewWorkerPool(1, 0), utils.NewDiscardLogger())
	unsub := n.Start(store)
	defer unsub()

	book(t, store, "First")
	book(t, store, "Second")
	n.Wait()

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "First")
	assert.Contains(t, msgs[1].Text, "Second")
}

func TestBookingNotifierKeepsGoingOnSendFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))

	sender := &fakeSender{err: errors.New("chat not found")}
	n := NewBookingNotifier(sender, []int64{10}, utils.NewWorkerPool(1, 0), utils.NewDiscardLogger())
	unsub := n.Start(store)
	defer unsub()

	book(t, store, "Guest")
	n.Wait()
	assert.Empty(t, sender.messages())
}

type blockingSender struct {
	release chan struct{}
	fakeSender
}

func (b *blockingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-b.release
	return b.fakeSender.Send(c)
}

func TestBookingNotifierDoesNotBlockInserts(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))

	sender := &blockingSender{release: make(chan struct{})}
	n := NewBookingNotifier(sender, []int64{10}, utils.NewWorkerPool(1, 0), utils.NewDiscardLogger())
	unsub := n.Start(store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, name := range []string{"First", "Second", "Third"} {
			_, err := store.InsertBooking(context.Background(), &models.BookingPayload{
				PropertyID: "p-1", PropertyName: "Sunny Loft", UserName: name, UserPhone: "555-0100",
			})
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(sender.release)
		t.Fatal("booking inserts waited on a Telegram send")
	}

	close(sender.release)
	unsub()
	n.Wait()
	assert.Len(t, sender.messages(), 3)
}

func TestBookingNotifierIgnoresBookingsAfterStop(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))

	sender := &fakeSender{}
	n := NewBookingNotifier(sender, []int64{10}, utils.NewWorkerPool(1, 0), utils.NewDiscardLogger())
	unsub := n.Start(store)
	unsub()
	unsub()

	book(t, store, "Late Guest")
	n.Wait()
	assert.Empty(t, sender.messages())
}

func TestFormatBooking(t *testing.T) {
	b := &models.Booking{BookingPayload: models.BookingPayload{
		PropertyName: "Sunny Loft", UserName: "Jo", UserPhone: "12345",
	}}
	text := FormatBooking(b)
	assert.Contains(t, text, "Property: Sunny Loft")
	assert.Contains(t, text, "Guest: Jo")
	assert.Contains(t, text, "Phone: 12345")
}
