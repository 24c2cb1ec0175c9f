// Package docstore holds the conventions shared by every MongoDB-backed
// repository: collection names, document keys and the sentinel errors the
// services map into their own catalogues.
package docstore

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// CollectionEmployee is the authoritative employee view.
	CollectionEmployee = "employee"
	// CollectionAdmin is the best-effort mirror read by administrators.
	CollectionAdmin = "admin"
	CollectionOutbox = "outbox_events"
)

var (
	ErrNotFound  = errors.New("docstore: document not found")
	ErrConflict  = errors.New("docstore: conditional update matched nothing")
	ErrDuplicate = errors.New("docstore: duplicate key")
)

// Key returns the document key for an email: lowercase and trimmed.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Exists reports whether a document with the given key is present.
func Exists(ctx context.Context, coll *mongo.Collection, key string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": key})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MapError translates driver errors into docstore sentinels; other errors
// pass through unchanged.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// IsStoreFailure reports whether err is a transport/driver failure rather
// than one of the sentinels.
func IsStoreFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrConflict) &&
		!errors.Is(err, ErrDuplicate)
}
