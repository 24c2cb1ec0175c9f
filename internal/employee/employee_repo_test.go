package employee

import (
	"context"
	"testing"

	"go-ems/internal/shared/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func profileDoc(email, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: email},
		{Key: "name", Value: name},
		{Key: "email", Value: email},
		{Key: "work", Value: "Engineer"},
		{Key: "salary", Value: 5000.0},
	}
}

func TestRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("normalizes key and stores empty leave records", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &Profile{Name: "Alice", Email: " Alice@Corp.com "}
		require.NoError(mt, repo.Create(ctx, p))

		assert.Equal(mt, "alice@corp.com", p.ID)
		assert.Equal(mt, "alice@corp.com", p.Email)
		assert.NotNil(mt, p.LeaveRecords)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		err := repo.Create(ctx, &Profile{Email: "alice@corp.com"})
		assert.ErrorIs(mt, err, docstore.ErrDuplicate)
	})
}

func TestRepository_Replace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts the whole document", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Replace(context.Background(), &Profile{Email: "alice@corp.com"}))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		updates, ok := started.Command.Lookup("updates").ArrayOK()
		require.True(mt, ok)
		first, err := updates.IndexErr(0)
		require.NoError(mt, err)
		assert.True(mt, first.Value().Document().Lookup("upsert").Boolean())
	})
}

func TestRepository_FindAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes every document", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			profileDoc("alice@corp.com", "Alice"),
			profileDoc("bob@corp.com", "Bob"),
		))

		profiles, err := repo.FindAll(context.Background())

		require.NoError(mt, err)
		require.Len(mt, profiles, 2)
		assert.Equal(mt, "Bob", profiles[1].Name)
		assert.NotNil(mt, profiles[0].LeaveRecords)
	})

	mt.Run("empty collection is an empty slice", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		profiles, err := repo.FindAll(context.Background())

		require.NoError(mt, err)
		assert.NotNil(mt, profiles)
		assert.Empty(mt, profiles)
	})
}

func TestRepository_FindByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, profileDoc("alice@corp.com", "Alice")))

		p, err := repo.FindByEmail(context.Background(), "ALICE@corp.com")

		require.NoError(mt, err)
		assert.Equal(mt, "Alice", p.Name)
		assert.Equal(mt, 5000.0, p.Salary)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByEmail(context.Background(), "ghost@corp.com")

		assert.ErrorIs(mt, err, docstore.ErrNotFound)
	})
}

func TestRepository_UpdateProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	fields := ProfileFields{Name: "Alice", Work: "Lead Engineer", Salary: 6500}

	mt.Run("returns the updated document", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		doc := profileDoc("alice@corp.com", "Alice")
		doc[3] = bson.E{Key: "work", Value: "Lead Engineer"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc}))

		p, err := repo.UpdateProfile(context.Background(), "alice@corp.com", fields)

		require.NoError(mt, err)
		assert.Equal(mt, "Lead Engineer", p.Work)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.UpdateProfile(context.Background(), "ghost@corp.com", fields)

		assert.ErrorIs(mt, err, docstore.ErrNotFound)
	})
}

func TestRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), "alice@corp.com"))
	})

	mt.Run("nothing to delete", func(mt *mtest.T) {
		repo := NewRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(context.Background(), "ghost@corp.com"), docstore.ErrNotFound)
	})
}
