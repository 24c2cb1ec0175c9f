package leave

import (
	"context"
	"sort"

	"go-ems/internal/shared/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock

// Repository stores leave records inside the leaveRecords array of one
// profile collection. The employee view and the admin view each get their
// own instance.
type Repository interface {
	// Append pushes rec onto the sequence. docstore.ErrNotFound when the
	// profile is missing, docstore.ErrConflict when rec.LeaveID is taken.
	Append(ctx context.Context, employeeKey string, rec LeaveRecord) error
	// FetchAll never returns nil on success.
	FetchAll(ctx context.Context, employeeKey string) ([]LeaveRecord, error)
	FindOne(ctx context.Context, employeeKey, leaveID string) (LeaveRecord, error)
	// ReplaceOne swaps prior for updated only if the stored element still has
	// prior's id and version; otherwise docstore.ErrConflict.
	ReplaceOne(ctx context.Context, employeeKey string, prior, updated LeaveRecord) error
	// Upsert writes rec unless an equal or newer version is already stored.
	Upsert(ctx context.Context, employeeKey string, rec LeaveRecord) error
	ListPending(ctx context.Context) ([]PendingLeave, error)
}

type profileLeaves struct {
	ID           string        `bson:"_id"`
	Name         string        `bson:"name,omitempty"`
	LeaveRecords []LeaveRecord `bson:"leaveRecords"`
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(db *mongo.Database, collection string) Repository {
	return &repository{coll: db.Collection(collection)}
}

func (r *repository) Append(ctx context.Context, employeeKey string, rec LeaveRecord) error {
	key := docstore.Key(employeeKey)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": key, "leaveRecords.leaveId": bson.M{"$ne": rec.LeaveID}},
		bson.M{"$push": bson.M{"leaveRecords": rec}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return r.missingOr(ctx, key, docstore.ErrConflict)
}

func (r *repository) FetchAll(ctx context.Context, employeeKey string) ([]LeaveRecord, error) {
	var doc profileLeaves
	err := r.coll.FindOne(ctx,
		bson.M{"_id": docstore.Key(employeeKey)},
		options.FindOne().SetProjection(bson.M{"leaveRecords": 1}),
	).Decode(&doc)
	if err != nil {
		return nil, docstore.MapError(err)
	}

	out := make([]LeaveRecord, 0, len(doc.LeaveRecords))
	for _, rec := range doc.LeaveRecords {
		out = append(out, rec.normalized())
	}
	return out, nil
}

func (r *repository) FindOne(ctx context.Context, employeeKey, leaveID string) (LeaveRecord, error) {
	var doc profileLeaves
	err := r.coll.FindOne(ctx,
		bson.M{"_id": docstore.Key(employeeKey)},
		options.FindOne().SetProjection(bson.M{
			"leaveRecords": bson.M{"$elemMatch": bson.M{"leaveId": leaveID}},
		}),
	).Decode(&doc)
	if err != nil {
		return LeaveRecord{}, docstore.MapError(err)
	}
	if len(doc.LeaveRecords) == 0 {
		return LeaveRecord{}, docstore.ErrNotFound
	}
	return doc.LeaveRecords[0].normalized(), nil
}

func (r *repository) ReplaceOne(ctx context.Context, employeeKey string, prior, updated LeaveRecord) error {
	match := bson.M{"leaveId": prior.LeaveID}
	if prior.Version == 0 {
		// records written before versioning carry no version field
		match["version"] = bson.M{"$exists": false}
	} else {
		match["version"] = prior.Version
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": docstore.Key(employeeKey), "leaveRecords": bson.M{"$elemMatch": match}},
		bson.M{"$set": bson.M{"leaveRecords.$": updated}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrConflict
	}
	return nil
}

func (r *repository) Upsert(ctx context.Context, employeeKey string, rec LeaveRecord) error {
	key := docstore.Key(employeeKey)

	// 1. replace an older copy
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": key, "leaveRecords": bson.M{"$elemMatch": bson.M{
			"leaveId": rec.LeaveID,
			"$or": bson.A{
				bson.M{"version": bson.M{"$lt": rec.Version}},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}}},
		bson.M{"$set": bson.M{"leaveRecords.$": rec}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// 2. append when absent
	res, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": key, "leaveRecords.leaveId": bson.M{"$ne": rec.LeaveID}},
		bson.M{"$push": bson.M{"leaveRecords": rec}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// 3. present with an equal or newer version
	return r.missingOr(ctx, key, nil)
}

// ListPending flattens every pending record across the collection, oldest
// application first.
func (r *repository) ListPending(ctx context.Context) ([]PendingLeave, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"$or": bson.A{
			bson.M{"leaveRecords.status": bson.M{"$in": bson.A{string(StatusPending), "pending"}}},
			bson.M{"leaveRecords": bson.M{"$elemMatch": bson.M{"status": bson.M{"$exists": false}}}},
		}},
		options.Find().SetProjection(bson.M{"name": 1, "leaveRecords": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []profileLeaves
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]PendingLeave, 0)
	for _, doc := range docs {
		for _, rec := range doc.LeaveRecords {
			rec = rec.normalized()
			// without an id the record cannot be reviewed until MigrateLegacy ran
			if rec.Status != StatusPending || rec.LeaveID == "" {
				continue
			}
			out = append(out, PendingLeave{EmployeeEmail: doc.ID, EmployeeName: doc.Name, Record: rec})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.AppliedAt.Before(out[j].Record.AppliedAt)
	})
	return out, nil
}

// missingOr returns docstore.ErrNotFound when the profile does not exist and
// otherwise err.
func (r *repository) missingOr(ctx context.Context, key string, err error) error {
	exists, existsErr := docstore.Exists(ctx, r.coll, key)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return docstore.ErrNotFound
	}
	return err
}
