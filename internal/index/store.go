// Package index is the queryable store holding document records and their
// extracted text, backed by MongoDB.
package index

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smart-notes-platform/models"
)

var (
	// ErrNotFound is returned when no document exists with the given id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidTransition is returned when a status change violates the
	// document lifecycle (e.g. reprocessing a document that has not failed).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DocumentStore is the narrow API every component mutates documents through.
// Routes, the worker, and the reconciler all share it; tests inject fakes.
type DocumentStore interface {
	Insert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	ListStuck(ctx context.Context, status string, olderThan time.Time) ([]models.Document, error)
	MarkQueued(ctx context.Context, id string, at time.Time) error
	MarkProcessing(ctx context.Context, id string, attempts int) error
	MarkIndexed(ctx context.Context, id string, rec *models.ExtractedRecord) error
	MarkFailed(ctx context.Context, id, reason string) error
	ResetForReprocess(ctx context.Context, id string) error
	GetExtracted(ctx context.Context, id string) (*models.ExtractedRecord, error)
	Search(ctx context.Context, query string, limit, snippetRadius int) ([]models.SearchResult, error)
}

// MongoStore implements DocumentStore on two collections: documents and
// extracted_texts (one record per document, upserted idempotently).
type MongoStore struct {
	documents *mongo.Collection
	extracted *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		documents: db.Collection("documents"),
		extracted: db.Collection("extracted_texts"),
	}
}

func (s *MongoStore) Insert(ctx context.Context, doc *models.Document) error {
	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Document, error) {
	cur, err := s.documents.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []models.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) ListStuck(ctx context.Context, status string, olderThan time.Time) ([]models.Document, error) {
	cur, err := s.documents.Find(ctx, bson.M{
		"status":     status,
		"updated_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck documents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []models.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode stuck documents: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) MarkQueued(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, bson.M{
		"status":         models.StatusQueued,
		"queued_at":      at,
		"failure_reason": "",
		"updated_at":     time.Now(),
	})
}

func (s *MongoStore) MarkProcessing(ctx context.Context, id string, attempts int) error {
	return s.update(ctx, id, bson.M{
		"status":     models.StatusProcessing,
		"attempts":   attempts,
		"updated_at": time.Now(),
	})
}

// MarkIndexed upserts the extracted record first and flips the status only
// after that write is durable. A crash in between leaves the document
// processing; redelivery is absorbed by the idempotency check.
func (s *MongoStore) MarkIndexed(ctx context.Context, id string, rec *models.ExtractedRecord) error {
	_, err := s.extracted.UpdateOne(ctx,
		bson.M{"document_id": id},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert extracted record: %w", err)
	}

	return s.update(ctx, id, bson.M{
		"status":         models.StatusIndexed,
		"indexed_at":     rec.ExtractedAt,
		"failure_reason": "",
		"updated_at":     time.Now(),
	})
}

func (s *MongoStore) MarkFailed(ctx context.Context, id, reason string) error {
	return s.update(ctx, id, bson.M{
		"status":         models.StatusFailed,
		"failure_reason": reason,
		"updated_at":     time.Now(),
	})
}

// ResetForReprocess moves a failed document back to queued. This is the only
// path out of the failed state and is operator-triggered, never automatic.
func (s *MongoStore) ResetForReprocess(ctx context.Context, id string) error {
	now := time.Now()
	res, err := s.documents.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusFailed},
		bson.M{"$set": bson.M{
			"status":         models.StatusQueued,
			"queued_at":      now,
			"failure_reason": "",
			"attempts":       0,
			"updated_at":     now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the document does not exist or it is not in the failed state.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (s *MongoStore) GetExtracted(ctx context.Context, id string) (*models.ExtractedRecord, error) {
	var rec models.ExtractedRecord
	err := s.extracted.FindOne(ctx, bson.M{"document_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load extracted record: %w", err)
	}
	return &rec, nil
}

// Search performs a case-insensitive substring match over extracted text.
// Only indexed documents are returned; failed or in-flight ones are simply
// absent from results (their status remains visible via /documents). Results
// are ranked by match count, ties broken by document id, so identical
// queries always return identical orderings.
func (s *MongoStore) Search(ctx context.Context, query string, limit, snippetRadius int) ([]models.SearchResult, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	cur, err := s.extracted.Find(ctx, bson.M{"text": pattern})
	if err != nil {
		return nil, fmt.Errorf("failed to query extracted texts: %w", err)
	}
	defer cur.Close(ctx)

	var records []models.ExtractedRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode extracted texts: %w", err)
	}

	results := make([]models.SearchResult, 0, len(records))
	for _, rec := range records {
		doc, err := s.Get(ctx, rec.DocumentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Extracted record outlived its document; skip, the
				// reconciler reports these.
				continue
			}
			return nil, err
		}
		if doc.Status != models.StatusIndexed {
			continue
		}
		results = append(results, models.SearchResult{
			DocumentID: rec.DocumentID,
			Filename:   doc.OriginalFilename,
			Snippet:    snippetAround(rec.Text, query, snippetRadius),
			Score:      matchScore(rec.Text, query),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MongoStore) update(ctx context.Context, id string, set bson.M) error {
	res, err := s.documents.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
