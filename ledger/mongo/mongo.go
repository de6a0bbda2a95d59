// Package mongo provides a MongoDB implementation of the ledger store.
//
// This implementation persists audit entries to MongoDB for durability
// across restarts, suitable for production deployments.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ridewire/voicebooking/ledger"
)

// Store is a MongoDB implementation of the ledger.Store interface.
type Store struct {
	collection *mongo.Collection
}

var _ ledger.Store = (*Store)(nil)

// entryDocument is the MongoDB document representation of a ledger.Entry.
type entryDocument struct {
	ID        string         `bson:"_id"`
	CallID    string         `bson:"call_id"`
	Seq       int            `bson:"seq"`
	Timestamp int64          `bson:"timestamp_unix_nano"`
	EventKind string         `bson:"event_kind"`
	EventData map[string]any `bson:"event_data,omitempty"`
	ActKind   string         `bson:"action_kind"`
	ActData   map[string]any `bson:"action_data,omitempty"`
}

// New creates a new MongoDB-backed Store using the provided collection. The
// collection should be from a connected MongoDB client.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

func docID(callID string, seq int) string {
	return fmt.Sprintf("%s:%06d", callID, seq)
}

// Append implements ledger.Store. Entries are immutable and keyed by
// {callID, seq}, so a duplicate Append for the same pair upserts rather than
// appending a second row -- at-least-once delivery from a retried engine
// dispatch never double-counts a call's entries.
func (s *Store) Append(ctx context.Context, entry ledger.Entry) error {
	doc := toDocument(entry)
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	if err != nil {
		return fmt.Errorf("mongodb append ledger entry %q: %w", doc.ID, err)
	}
	return nil
}

// List implements ledger.Store, returning entries for callID ordered by Seq.
func (s *Store) List(ctx context.Context, callID string) ([]ledger.Entry, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"call_id": callID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb list ledger entries %q: %w", callID, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb list ledger entries decode %q: %w", callID, err)
	}
	if len(docs) == 0 {
		return nil, ledger.ErrNotFound
	}
	out := make([]ledger.Entry, len(docs))
	for i, doc := range docs {
		out[i] = fromDocument(&doc)
	}
	return out, nil
}

func toDocument(e ledger.Entry) *entryDocument {
	return &entryDocument{
		ID:        docID(e.CallID, e.Seq),
		CallID:    e.CallID,
		Seq:       e.Seq,
		Timestamp: e.Timestamp.UnixNano(),
		EventKind: e.Event.Kind,
		EventData: e.Event.Data,
		ActKind:   e.Action.Kind,
		ActData:   e.Action.Data,
	}
}

func fromDocument(doc *entryDocument) ledger.Entry {
	return ledger.Entry{
		CallID:    doc.CallID,
		Seq:       doc.Seq,
		Timestamp: time.Unix(0, doc.Timestamp).UTC(),
		Event:     ledger.Summary{Kind: doc.EventKind, Data: doc.EventData},
		Action:    ledger.Summary{Kind: doc.ActKind, Data: doc.ActData},
	}
}
