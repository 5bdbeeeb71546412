package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/metrics"
	"github.com/vedran77/fixly/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNotAProvider      = errors.New("user is not a provider")
	ErrCannotBookSelf    = errors.New("cannot book yourself")
	ErrNotBookingMember  = errors.New("you are not part of this booking")
	ErrInvalidTransition = errors.New("booking cannot move to that status")
)

// bookingTransitions lists who may move a booking from one status to the next.
var bookingTransitions = map[domain.BookingStatus]map[domain.BookingStatus]domain.Role{
	domain.BookingPending: {
		domain.BookingAccepted:  domain.RoleProvider,
		domain.BookingDeclined:  domain.RoleProvider,
		domain.BookingCancelled: domain.RoleCustomer,
	},
	domain.BookingAccepted: {
		domain.BookingCompleted: domain.RoleProvider,
		domain.BookingCancelled: domain.RoleCustomer,
	},
}

type BookingService struct {
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewBookingService(bookingRepo repository.BookingRepository, userRepo repository.UserRepository) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func (s *BookingService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *BookingService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type CreateBookingInput struct {
	ProviderID  string    `json:"providerId"`
	Service     string    `json:"service"`
	Note        string    `json:"note"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type UpdateBookingInput struct {
	Status domain.BookingStatus `json:"status"`
}

// Create books a provider for the caller and notifies the provider.
func (s *BookingService) Create(ctx context.Context, customerID string, input CreateBookingInput) (*domain.Booking, error) {
	providerID := strings.ToLower(input.ProviderID)
	if providerID == customerID {
		return nil, ErrCannotBookSelf
	}

	provider, err := s.userRepo.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrUserNotFound
	}
	if provider.Role != domain.RoleProvider {
		return nil, ErrNotAProvider
	}

	now := s.now()
	booking := &domain.Booking{
		ID:          primitive.NewObjectID().Hex(),
		CustomerID:  customerID,
		ProviderID:  providerID,
		Service:     strings.TrimSpace(input.Service),
		Note:        strings.TrimSpace(input.Note),
		Status:      domain.BookingPending,
		ScheduledAt: input.ScheduledAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	if s.notifier != nil {
		s.notifier.NotifyNewBooking(booking)
	}

	return booking, nil
}

func (s *BookingService) List(ctx context.Context, userID string) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

// UpdateStatus moves a booking along its lifecycle. Providers accept,
// decline and complete; customers cancel.
func (s *BookingService) UpdateStatus(ctx context.Context, userID, bookingID string, input UpdateBookingInput) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, strings.ToLower(bookingID))
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	var actor domain.Role
	switch userID {
	case booking.ProviderID:
		actor = domain.RoleProvider
	case booking.CustomerID:
		actor = domain.RoleCustomer
	default:
		return nil, ErrNotBookingMember
	}

	allowed, ok := bookingTransitions[booking.Status][input.Status]
	if !ok || allowed != actor {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, input.Status, now); err != nil {
		return nil, fmt.Errorf("updating booking: %w", err)
	}

	booking.Status = input.Status
	booking.UpdatedAt = now
	return booking, nil
}

// PendingCount is the number of bookings waiting on the provider's answer.
func (s *BookingService) PendingCount(ctx context.Context, providerID string) (int, error) {
	return s.bookingRepo.CountPending(ctx, providerID)
}
