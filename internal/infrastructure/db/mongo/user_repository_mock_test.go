package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/atica/user-roster/internal/core/domain"
)

func mockRepo(mt *mtest.T) *UserRepository {
	return &UserRepository{col: mt.Coll, counters: mt.Coll}
}

func countResponse(mt *mtest.T, n int64) bson.D {
	ns := mt.DB.Name() + "." + mt.Coll.Name()
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: int32(1)}, {Key: "n", Value: n}})
}

func duplicateKeyResponse(index string) bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: user_roster.users index: " + index + " dup key",
	})
}

func TestUserRepository_DocumentExists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("excludes the edited user", func(mt *mtest.T) {
		mt.AddMockResponses(countResponse(mt, 1))

		exists, err := mockRepo(mt).DocumentExists(context.Background(), "1001", 7)
		if err != nil || !exists {
			mt.Fatalf("exists=%v err=%v", exists, err)
		}

		cmd := mt.GetStartedEvent().Command
		match := cmd.Lookup("pipeline", "0", "$match")
		if got := match.Document().Lookup("document").StringValue(); got != "1001" {
			mt.Errorf("document filter = %q", got)
		}
		if !match.Document().Lookup("active").Boolean() {
			mt.Error("filter must only match active users")
		}
		if got := match.Document().Lookup("_id", "$ne").Int64(); got != 7 {
			mt.Errorf("_id $ne = %d, want 7", got)
		}
	})

	mt.Run("no exclusion on create", func(mt *mtest.T) {
		mt.AddMockResponses(countResponse(mt, 0))

		exists, err := mockRepo(mt).DocumentExists(context.Background(), "1001", 0)
		if err != nil || exists {
			mt.Fatalf("exists=%v err=%v", exists, err)
		}

		cmd := mt.GetStartedEvent().Command
		if _, err := cmd.LookupErr("pipeline", "0", "$match", "_id"); err == nil {
			mt.Error("filter must not exclude any id when excludeID is 0")
		}
	})
}

func TestUserRepository_EmailExists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("anchored case-insensitive match", func(mt *mtest.T) {
		mt.AddMockResponses(countResponse(mt, 1))

		exists, err := mockRepo(mt).EmailExists(context.Background(), "  Ana@Mail.com ", 3)
		if err != nil || !exists {
			mt.Fatalf("exists=%v err=%v", exists, err)
		}

		email := mt.GetStartedEvent().Command.Lookup("pipeline", "0", "$match", "email").Document()
		if got := email.Lookup("$regex").StringValue(); got != `^Ana@Mail\.com$` {
			mt.Errorf("regex = %q", got)
		}
		if got := email.Lookup("$options").StringValue(); got != "i" {
			mt.Errorf("options = %q", got)
		}
	})
}

func TestUserRepository_CreateClassifiesDuplicates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name  string
		index string
		want  error
	}{
		{"document", indexActiveDocument, domain.ErrDuplicateDocument},
		{"email", indexActiveEmail, domain.ErrDuplicateEmail},
	}
	for _, tc := range tests {
		mt.Run(tc.name, func(mt *mtest.T) {
			mt.AddMockResponses(
				mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: userSequence}, {Key: "seq", Value: int64(5)}}}),
				duplicateKeyResponse(tc.index),
			)

			_, err := mockRepo(mt).Create(context.Background(), &domain.User{
				FirstName: "Ana", LastName: "Gomez", Document: "1001", Email: "ana@mail.com",
				Role: domain.RoleUser, Active: true,
			})
			if !errors.Is(err, tc.want) {
				mt.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	mt.Run("inserts with allocated id", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: userSequence}, {Key: "seq", Value: int64(5)}}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		id, err := mockRepo(mt).Create(context.Background(), &domain.User{
			FirstName: "Ana", LastName: "Gomez", Document: "1001", Email: "Ana@Mail.com",
			Role: domain.RoleUser, Active: true,
		})
		if err != nil || id != 5 {
			mt.Fatalf("id=%d err=%v", id, err)
		}

		mt.GetStartedEvent() // findAndModify on the counter
		doc := mt.GetStartedEvent().Command.Lookup("documents", "0").Document()
		if got := doc.Lookup("_id").Int64(); got != 5 {
			mt.Errorf("_id = %d", got)
		}
		if got := doc.Lookup("email").StringValue(); got != "ana@mail.com" {
			mt.Errorf("email = %q", got)
		}
	})
}

func TestUserRepository_UpdateWritesActive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deactivate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(1)}))

		ok, err := mockRepo(mt).Update(context.Background(), &domain.User{
			ID: 4, FirstName: "Ana", LastName: "Gomez", Document: "1001", Email: "ana@mail.com",
			Role: domain.RoleUser, Active: false,
		})
		if err != nil || !ok {
			mt.Fatalf("ok=%v err=%v", ok, err)
		}

		set := mt.GetStartedEvent().Command.Lookup("updates", "0", "u", "$set").Document()
		active, found := set.Lookup("active").BooleanOK()
		if !found || active {
			mt.Errorf("$set.active = %v (present %v), want false", active, found)
		}
		if _, err := set.LookupErr("created_at"); err == nil {
			mt.Error("update must not overwrite created_at")
		}
	})

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}))

		ok, err := mockRepo(mt).Update(context.Background(), &domain.User{ID: 404, Active: true})
		if err != nil || ok {
			mt.Fatalf("ok=%v err=%v", ok, err)
		}
	})

	mt.Run("reactivation collides", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyResponse(indexActiveDocument))

		_, err := mockRepo(mt).Update(context.Background(), &domain.User{ID: 4, Document: "1001", Active: true})
		if !errors.Is(err, domain.ErrDuplicateDocument) {
			mt.Fatalf("err = %v, want ErrDuplicateDocument", err)
		}
	})
}
