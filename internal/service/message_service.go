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
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotMessageOwner      = errors.New("only the message sender can perform this action")
	ErrCannotMessageSelf    = errors.New("cannot send a message to yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Notifier pushes real-time events to connected clients.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyNewBooking(booking *domain.Booking)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *MessageService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type SendMessageInput struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

type EditMessageInput struct {
	Text string `json:"text"`
}

// Send stores a message and notifies the receiver. The returned message
// carries both participants' profiles.
func (s *MessageService) Send(ctx context.Context, senderID string, input SendMessageInput) (*domain.Message, error) {
	receiverID := strings.ToLower(input.ReceiverID)
	if receiverID == senderID {
		return nil, ErrCannotMessageSelf
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	msg := &domain.Message{
		ID:         primitive.NewObjectID().Hex(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       input.Text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		full = msg
	}

	if s.metrics != nil {
		s.metrics.MessagesSent.Inc()
	}
	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	return full, nil
}

// Thread returns the conversation with peerID, oldest first. Messages the
// peer sent to userID are marked read before they are returned.
func (s *MessageService) Thread(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	peerID = strings.ToLower(peerID)
	peer, err := s.userRepo.GetByID(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if peer == nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.messageRepo.MarkRead(ctx, userID, peerID); err != nil {
		return nil, fmt.Errorf("marking thread read: %w", err)
	}

	messages, err := s.messageRepo.ListThread(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

func (s *MessageService) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs, err := s.messageRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}

// Edit replaces the text of one of the caller's messages.
func (s *MessageService) Edit(ctx context.Context, userID, messageID string, input EditMessageInput) (*domain.Message, error) {
	msg, err := s.ownMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	msg.Text = input.Text
	msg.IsEdited = true
	msg.UpdatedAt = s.now()
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.MessagesEdited.Inc()
	}
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	if _, err := s.ownMessage(ctx, userID, messageID); err != nil {
		return err
	}

	if err := s.messageRepo.Delete(ctx, strings.ToLower(messageID)); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.MessagesDeleted.Inc()
	}
	return nil
}

// DeleteConversation removes every message between the caller and peerID.
func (s *MessageService) DeleteConversation(ctx context.Context, userID, peerID string) (int64, error) {
	n, err := s.messageRepo.DeleteConversation(ctx, userID, strings.ToLower(peerID))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrConversationNotFound
	}

	if s.metrics != nil {
		s.metrics.MessagesDeleted.Add(float64(n))
	}
	return n, nil
}

func (s *MessageService) ownMessage(ctx context.Context, userID, messageID string) (*domain.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, strings.ToLower(messageID))
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrNotMessageOwner
	}
	return msg, nil
}
