package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding notification records.
const CollectionName = "notifications"

// MongoStore is the MongoDB-backed implementation of the Store interface.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a record store on top of the given database.
func NewMongoStore(db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, ErrStoreNil
	}
	return &MongoStore{coll: db.Collection(CollectionName)}, nil
}

type recordDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	RecipientID string        `bson:"user_id"`
	Channel     string        `bson:"type"`
	Content     string        `bson:"content"`
	Status      string        `bson:"status"`
	CreatedAt   time.Time     `bson:"created_at"`
}

func (s *MongoStore) Create(ctx context.Context, recipientID string, channel Channel, content string) (string, error) {
	doc := recordDoc{
		RecipientID: recipientID,
		Channel:     string(channel),
		Content:     content,
		Status:      string(StatusPending),
		CreatedAt:   time.Now(),
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", errors.Join(ErrStoreUnavailable, err)
	}

	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Ids that never came from this store cannot match any record;
		// treat them like a missing id and do nothing.
		return nil
	}

	_, err = s.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) ListByRecipient(ctx context.Context, recipientID string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": recipientID}, opts)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	records := make([]Record, 0)
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode notification record: %w", err)
		}
		records = append(records, Record{
			ID:          doc.ID.Hex(),
			RecipientID: doc.RecipientID,
			Channel:     Channel(doc.Channel),
			Content:     doc.Content,
			Status:      Status(doc.Status),
			CreatedAt:   doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return records, nil
}
