package models

import "time"

const (
	ConversationsColName = "conversations"
	MessagesColName      = "messages"
)

type Conversation struct {
	ID            string    `bson:"_id" json:"id"`
	TravelerID    string    `bson:"traveler_id" json:"traveler_id"`
	GuideID       string    `bson:"guide_id" json:"guide_id"`
	LastMessage   string    `bson:"last_message" json:"last_message"`
	LastMessageAt time.Time `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.TravelerID == userID || c.GuideID == userID
}

type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	Text           string    `bson:"text" json:"text"`
	Read           bool      `bson:"read" json:"read"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4000"`
}

type StartConversationRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,uuid"`
}
