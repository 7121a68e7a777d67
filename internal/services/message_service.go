package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

// streamBuffer bounds how far a slow SSE client can fall behind before
// messages are dropped for it.
const streamBuffer = 32

type MessageService struct {
	messages models.MessagesRepo
	users    models.UserRepo
	bus      events.Bus
	logger   *slog.Logger
}

func NewMessageService(messages models.MessagesRepo, users models.UserRepo, bus events.Bus, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		bus:      bus,
		logger:   logger,
	}
}

// StartConversation opens, or returns the existing, conversation between the
// caller and another user. One side must be a traveler and the other a guide.
func (ms *MessageService) StartConversation(ctx context.Context, actor Actor, req *models.StartConversationRequest) (*models.Conversation, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if req.ParticipantID == actor.UserID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", models.ErrInvalidInput)
	}

	otherID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid participant id", models.ErrInvalidInput)
	}
	other, err := ms.users.GetUser(ctx, otherID, actor.AccessToken)
	if err != nil {
		return nil, err
	}

	var travelerID, guideID string
	switch {
	case actor.Role == models.RoleTraveler && other.Role == models.RoleGuide:
		travelerID, guideID = actor.UserID, req.ParticipantID
	case actor.Role == models.RoleGuide && other.Role == models.RoleTraveler:
		travelerID, guideID = req.ParticipantID, actor.UserID
	default:
		return nil, fmt.Errorf("%w: conversations are between a traveler and a guide", models.ErrInvalidInput)
	}

	return ms.messages.UpsertConversation(ctx, travelerID, guideID)
}

func (ms *MessageService) ListConversations(ctx context.Context, actor Actor) ([]*models.Conversation, error) {
	return ms.messages.ListConversations(ctx, actor.UserID)
}

func (ms *MessageService) conversation(ctx context.Context, actor Actor, id string) (*models.Conversation, error) {
	conv, err := ms.messages.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actor.UserID) {
		return nil, fmt.Errorf("%w: not a participant", models.ErrForbidden)
	}
	return conv, nil
}

func (ms *MessageService) Send(ctx context.Context, actor Actor, conversationID string, req *models.SendMessageRequest) (*models.Message, error) {
	req.Text = helpers.StringTrim(req.Text)
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if _, err := ms.conversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       actor.UserID,
		Text:           req.Text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := ms.messages.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if ms.bus != nil {
		if err := ms.bus.Publish(ctx, events.ChatSubject(conversationID), msg); err != nil {
			// stored already; live listeners catch up on the next List
			ms.logger.Warn("Failed to publish chat message", "conversation_id", conversationID, "error", err)
		}
	}
	return msg, nil
}

func (ms *MessageService) List(ctx context.Context, actor Actor, conversationID string) ([]*models.Message, error) {
	if _, err := ms.conversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	return ms.messages.ListMessages(ctx, conversationID)
}

// MarkRead flags every message from the other participant as read.
func (ms *MessageService) MarkRead(ctx context.Context, actor Actor, conversationID string) (int64, error) {
	if _, err := ms.conversation(ctx, actor, conversationID); err != nil {
		return 0, err
	}
	return ms.messages.MarkRead(ctx, conversationID, actor.UserID)
}

// Subscribe streams new messages of a conversation until ctx is done. The
// returned channel is closed after the subscription is torn down.
func (ms *MessageService) Subscribe(ctx context.Context, actor Actor, conversationID string) (<-chan *models.Message, error) {
	if _, err := ms.conversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	if ms.bus == nil {
		return nil, fmt.Errorf("live chat is unavailable")
	}

	out := make(chan *models.Message, streamBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	sub, err := ms.bus.Subscribe(events.ChatSubject(conversationID), func(data []byte) {
		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			ms.logger.Warn("Failed to decode chat message", "conversation_id", conversationID, "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- &msg:
		default:
			ms.logger.Warn("Dropping chat message for slow listener", "conversation_id", conversationID, "user_id", actor.UserID)
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			ms.logger.Warn("Failed to unsubscribe chat listener", "conversation_id", conversationID, "error", err)
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}
