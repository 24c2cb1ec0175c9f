package leave

import (
	"context"
	"errors"
	"time"

	"go-ems/internal/shared/docstore"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:generate mockgen -source=leave_legacy.go -destination=mock/leave_legacy_mock.go -package=mock

// LegacyMigrator upgrades records written before leave ids and versions
// existed: no leaveId, no status, fromDate/toDate instead of
// startDate/endDate and appliedAt stored as an ISO string.
type LegacyMigrator interface {
	// LegacyKeys lists the profiles holding at least one legacy record.
	LegacyKeys(ctx context.Context) ([]string, error)
	// MigrateLegacy rewrites the legacy records of one profile in place and
	// returns how many were upgraded.
	MigrateLegacy(ctx context.Context, employeeKey string) (int, error)
}

func NewLegacyMigrator(db *mongo.Database, collection string) LegacyMigrator {
	return &repository{coll: db.Collection(collection)}
}

var legacyElement = bson.M{"$elemMatch": bson.M{"$or": bson.A{
	bson.M{"leaveId": bson.M{"$exists": false}},
	bson.M{"leaveId": ""},
	bson.M{"status": bson.M{"$exists": false}},
	bson.M{"fromDate": bson.M{"$exists": true}},
	bson.M{"appliedAt": bson.M{"$type": "string"}},
}}}

func (r *repository) LegacyKeys(ctx context.Context) ([]string, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"leaveRecords": legacyElement},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.ID)
	}
	return keys, nil
}

func (r *repository) MigrateLegacy(ctx context.Context, employeeKey string) (int, error) {
	key := docstore.Key(employeeKey)

	var doc struct {
		LeaveRecords []bson.Raw `bson:"leaveRecords"`
	}
	err := r.coll.FindOne(ctx, bson.M{"_id": key},
		options.FindOne().SetProjection(bson.M{"leaveRecords": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, docstore.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, raw := range doc.LeaveRecords {
		if !isLegacy(raw) {
			continue
		}
		rec, err := upgradeLegacy(raw)
		if err != nil {
			return migrated, err
		}
		// the element is matched by its exact stored value; a concurrent
		// upgrade simply matches nothing
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": key, "leaveRecords": raw},
			bson.M{"$set": bson.M{"leaveRecords.$": rec}},
		)
		if err != nil {
			return migrated, err
		}
		if res.MatchedCount > 0 {
			migrated++
		}
	}
	return migrated, nil
}

func isLegacy(raw bson.Raw) bool {
	id, err := raw.LookupErr("leaveId")
	if err != nil {
		return true
	}
	if s, ok := id.StringValueOK(); !ok || s == "" {
		return true
	}
	if _, err := raw.LookupErr("status"); err != nil {
		return true
	}
	if _, err := raw.LookupErr("fromDate"); err == nil {
		return true
	}
	if applied, err := raw.LookupErr("appliedAt"); err == nil && applied.Type == bsontype.String {
		return true
	}
	return false
}

func upgradeLegacy(raw bson.Raw) (LeaveRecord, error) {
	var old struct {
		LeaveID    string `bson:"leaveId"`
		LeaveType  string `bson:"leaveType"`
		StartDate  string `bson:"startDate"`
		EndDate    string `bson:"endDate"`
		FromDate   string `bson:"fromDate"`
		ToDate     string `bson:"toDate"`
		Reason     string `bson:"reason"`
		Status     string `bson:"status"`
		Version    int64  `bson:"version"`
		ReviewedBy string `bson:"reviewedBy"`
	}
	if err := bson.Unmarshal(raw, &old); err != nil {
		return LeaveRecord{}, err
	}

	rec := LeaveRecord{
		LeaveID:    old.LeaveID,
		LeaveType:  LeaveType(old.LeaveType),
		StartDate:  legacyDate(old.StartDate, old.FromDate),
		EndDate:    legacyDate(old.EndDate, old.ToDate),
		Reason:     old.Reason,
		AppliedAt:  rawTime(raw, "appliedAt"),
		Status:     Status(old.Status),
		Version:    old.Version,
		ReviewedBy: old.ReviewedBy,
	}
	if rec.LeaveID == "" {
		rec.LeaveID = uuid.NewString()
	}
	if rec.Version < 1 {
		rec.Version = 1
	}
	if t := rawTime(raw, "reviewedAt"); !t.IsZero() {
		rec.ReviewedAt = &t
	}
	return rec.normalized(), nil
}

// legacyDate prefers the current field and cuts ISO timestamps down to the
// calendar date.
func legacyDate(current, legacy string) string {
	v := current
	if v == "" {
		v = legacy
	}
	if len(v) > len(DateLayout) {
		if _, err := time.Parse(DateLayout, v[:len(DateLayout)]); err == nil {
			return v[:len(DateLayout)]
		}
	}
	return v
}

func rawTime(raw bson.Raw, field string) time.Time {
	v, err := raw.LookupErr(field)
	if err != nil {
		return time.Time{}
	}
	switch v.Type {
	case bsontype.DateTime:
		return v.Time().UTC()
	case bsontype.String:
		t, err := time.Parse(time.RFC3339Nano, v.StringValue())
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
