package services

import (
	"context"
	"fmt"

	"property-marketplace/metrics"
	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

// BookingService validates booking requests and writes them to the store.
type BookingService struct {
	store  storage.BookingStore
	logger *utils.Logger
}

func NewBookingService(store storage.BookingStore, logger *utils.Logger) *BookingService {
	return &BookingService{store: store, logger: logger}
}

// Create validates raw and inserts it. The referenced property is not looked
// up; the request carries the property name it was made from.
func (s *BookingService) Create(ctx context.Context, raw models.RawBookingInput) (*models.Booking, error) {
	payload, errs := ValidateBooking(raw)
	if len(errs) > 0 {
		metrics.IncBookingSubmission(metrics.OutcomeInvalid)
		return nil, errs
	}

	booking, err := s.store.InsertBooking(ctx, payload)
	if err != nil {
		metrics.IncBookingSubmission(metrics.OutcomeError)
		s.logger.Error("[bookings] Insert failed for property %s: %v", payload.PropertyID, err)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingSubmission(metrics.OutcomeOK)
	s.logger.Info("[bookings] %s requested %q", booking.UserName, booking.PropertyName)
	return booking, nil
}
