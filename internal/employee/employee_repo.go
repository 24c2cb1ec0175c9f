package employee

import (
	"context"
	"time"

	"go-ems/internal/leave"
	"go-ems/internal/shared/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock

// Repository stores whole profile documents in one collection. The
// employee view and the admin view each get their own instance.
type Repository interface {
	// Create fails with docstore.ErrDuplicate when the email is taken.
	Create(ctx context.Context, p *Profile) error
	// Replace overwrites or inserts the whole document, leave records included.
	Replace(ctx context.Context, p *Profile) error
	FindAll(ctx context.Context) ([]Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateProfile(ctx context.Context, email string, fields ProfileFields) (*Profile, error)
	Delete(ctx context.Context, email string) error
}

type repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(db *mongo.Database, collection string) Repository {
	return &repository{coll: db.Collection(collection), now: time.Now}
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	prepare(p)
	_, err := r.coll.InsertOne(ctx, p)
	return docstore.MapError(err)
}

func (r *repository) Replace(ctx context.Context, p *Profile) error {
	prepare(p)
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID},
		p,
		options.Replace().SetUpsert(true),
	)
	return docstore.MapError(err)
}

func (r *repository) FindAll(ctx context.Context) ([]Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	profiles := make([]Profile, 0)
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	for i := range profiles {
		withRecords(&profiles[i])
	}
	return profiles, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	if err := r.coll.FindOne(ctx, bson.M{"_id": docstore.Key(email)}).Decode(&p); err != nil {
		return nil, docstore.MapError(err)
	}
	withRecords(&p)
	return &p, nil
}

func (r *repository) UpdateProfile(ctx context.Context, email string, fields ProfileFields) (*Profile, error) {
	var p Profile
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": docstore.Key(email)},
		bson.M{"$set": bson.M{
			"name":      fields.Name,
			"work":      fields.Work,
			"salary":    fields.Salary,
			"phone":     fields.Phone,
			"address":   fields.Address,
			"project":   fields.Project,
			"updatedAt": r.now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, docstore.MapError(err)
	}
	withRecords(&p)
	return &p, nil
}

func (r *repository) Delete(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": docstore.Key(email)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// prepare fixes the key and makes sure leaveRecords is stored as an array,
// never null, so later $push updates succeed.
func prepare(p *Profile) {
	p.Email = docstore.Key(p.Email)
	if p.ID == "" {
		p.ID = p.Email
	}
	withRecords(p)
}

func withRecords(p *Profile) {
	if p.LeaveRecords == nil {
		p.LeaveRecords = []leave.LeaveRecord{}
	}
}
