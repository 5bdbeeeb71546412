package repository

import (
	"context"
	"time"

	"github.com/vedran77/fixly/internal/domain"
)

// Lookups return nil, nil when nothing matches.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListFeatured(ctx context.Context, limit int) ([]domain.User, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListThread returns every message between the two users, oldest first.
	ListThread(ctx context.Context, userID, peerID string) ([]domain.Message, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	// MarkRead marks the messages sent by senderID to receiverID as read.
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
	Update(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id string) error
	DeleteConversation(ctx context.Context, userID, peerID string) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error
	CountPending(ctx context.Context, providerID string) (int, error)
}
