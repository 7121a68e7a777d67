package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessagesRepo interface {
	UpsertConversation(ctx context.Context, travelerID, guideID string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*Conversation, error)
	InsertMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
}

func (mdb *MongodbRepo) UpsertConversation(ctx context.Context, travelerID, guideID string) (*Conversation, error) {
	col, err := mdb.GetCollection(ctx, ConversationsColName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var conv Conversation
	err = col.FindOneAndUpdate(ctx,
		bson.M{"traveler_id": travelerID, "guide_id": guideID},
		bson.M{"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"last_message": "",
			"created_at":   now,
			"updated_at":   now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&conv)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return &conv, nil
}

func (mdb *MongodbRepo) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	col, err := mdb.GetCollection(ctx, ConversationsColName)
	if err != nil {
		return nil, err
	}

	var conv Conversation
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (mdb *MongodbRepo) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	col, err := mdb.GetCollection(ctx, ConversationsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"traveler_id": userID},
		bson.M{"guide_id": userID},
	}}
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	convs := make([]*Conversation, 0)
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

// InsertMessage stores the message and bumps the conversation preview.
func (mdb *MongodbRepo) InsertMessage(ctx context.Context, msg *Message) error {
	msgs, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return err
	}
	if _, err := msgs.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	convs, err := mdb.GetCollection(ctx, ConversationsColName)
	if err != nil {
		return err
	}
	_, err = convs.UpdateByID(ctx, msg.ConversationID, bson.M{"$set": bson.M{
		"last_message":    msg.Text,
		"last_message_at": msg.CreatedAt,
		"updated_at":      msg.CreatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update conversation preview: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags every message the reader did not send as read.
func (mdb *MongodbRepo) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return 0, err
	}

	res, err := col.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": bson.M{"$ne": readerID}, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.ModifiedCount, nil
}
