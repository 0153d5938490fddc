// Package notify tells admins about new booking requests over Telegram.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"property-marketplace/metrics"
	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

// Sender delivers a Telegram message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const (
	// queueSize bounds bookings waiting for delivery; overflow is dropped.
	queueSize = 256

	sendTimeout = 15 * time.Second
)

// NewTelegramSender connects to the Bot API with token. Requests give up
// after sendTimeout.
func NewTelegramSender(token string) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: sendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

// BookingNotifier watches the booking feed and messages every admin chat
// once per new booking. Feed callbacks only enqueue; a dispatcher goroutine
// hands messages to the pool, so a slow Bot API never holds up inserts.
type BookingNotifier struct {
	sender  Sender
	chatIDs []int64
	pool    *utils.WorkerPool
	logger  *utils.Logger

	seen    *utils.IDSet
	queue   chan *models.Booking
	pending sync.WaitGroup
	start   sync.Once

	mu      sync.Mutex
	seeded  bool
	stopped bool
}

func NewBookingNotifier(sender Sender, chatIDs []int64, pool *utils.WorkerPool, logger *utils.Logger) *BookingNotifier {
	return &BookingNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		pool:    pool,
		logger:  logger,
		seen:    utils.NewIDSet(),
		queue:   make(chan *models.Booking, queueSize),
	}
}

// Start subscribes to store. Call it after the store is connected: the
// first snapshot only marks existing bookings as seen. The returned func
// unsubscribes and stops accepting bookings; already queued ones are still
// sent.
func (n *BookingNotifier) Start(store storage.BookingStore) storage.Unsubscribe {
	n.start.Do(func() { go n.dispatch() })
	unsubscribe := store.SubscribeBookings(n.handle)
	return func() {
		unsubscribe()
		n.mu.Lock()
		defer n.mu.Unlock()
		if !n.stopped {
			n.stopped = true
			close(n.queue)
		}
	}
}

// Wait blocks until queued messages are sent.
func (n *BookingNotifier) Wait() {
	n.pending.Wait()
	n.pool.Wait()
}

func (n *BookingNotifier) dispatch() {
	for b := range n.queue {
		n.announce(b)
		n.pending.Done()
	}
}

func (n *BookingNotifier) handle(bookings []*models.Booking) {
	n.mu.Lock()
	seeding := !n.seeded
	n.seeded = true
	n.mu.Unlock()

	// Snapshots are newest first; announce in arrival order.
	for i := len(bookings) - 1; i >= 0; i-- {
		b := bookings[i]
		if !n.seen.Add(b.ID) || seeding {
			continue
		}
		n.enqueue(b)
	}
	if seeding {
		n.logger.Info("[notify] Tracking %d existing bookings", n.seen.Size())
	}
}

// enqueue never blocks. A full queue drops the booking.
func (n *BookingNotifier) enqueue(b *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.pending.Add(1)
	select {
	case n.queue <- b:
	default:
		n.pending.Done()
		metrics.IncNotification(metrics.OutcomeDropped)
		n.logger.Warn("[notify] Queue full, dropping notification for booking %s", b.ID)
	}
}

func (n *BookingNotifier) announce(b *models.Booking) {
	text := FormatBooking(b)
	for _, chatID := range n.chatIDs {
		chatID := chatID
		n.pool.Submit(func() {
			msg := tgbotapi.NewMessage(chatID, text)
			if _, err := n.sender.Send(msg); err != nil {
				metrics.IncNotification(metrics.OutcomeError)
				n.logger.Warn("[notify] Send to %d failed for booking %s: %v", chatID, b.ID, err)
				return
			}
			metrics.IncNotification(metrics.OutcomeOK)
		})
	}
}

// FormatBooking renders the admin message for b.
func FormatBooking(b *models.Booking) string {
	var sb strings.Builder
	sb.WriteString("🏠 New booking request\n\n")
	fmt.Fprintf(&sb, "Property: %s\n", b.PropertyName)
	fmt.Fprintf(&sb, "Guest: %s\n", b.UserName)
	fmt.Fprintf(&sb, "Phone: %s\n", b.UserPhone)
	fmt.Fprintf(&sb, "Requested: %s", b.BookingDate.Format("2006-01-02 15:04"))
	return sb.String()
}
