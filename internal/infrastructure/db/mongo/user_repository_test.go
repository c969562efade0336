package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atica/user-roster/internal/core/domain"
)

func duplicateKey(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: user_roster.users index: " + index + " dup key",
	}}}
}

func TestClassifyWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"document index", duplicateKey(indexActiveDocument), domain.ErrDuplicateDocument},
		{"email index", duplicateKey(indexActiveEmail), domain.ErrDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyWriteError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	other := errors.New("network timeout")
	if got := classifyWriteError(other); got != other {
		t.Fatalf("non-duplicate errors must pass through, got %v", got)
	}

	// A duplicate on an unrelated index (e.g. _id) is not a roster conflict.
	idDup := duplicateKey("_id_")
	if got := classifyWriteError(idDup); errors.Is(got, domain.ErrDuplicateDocument) || errors.Is(got, domain.ErrDuplicateEmail) {
		t.Fatalf("unexpected roster duplicate for _id collision: %v", got)
	}
}

func TestToMongoUser_NormalizesEmail(t *testing.T) {
	doc := toMongoUser(&domain.User{ID: 3, Email: "  Ana@Mail.COM "})
	if doc.Email != "ana@mail.com" {
		t.Fatalf("email = %q", doc.Email)
	}
	if back := doc.toDomain(); back.ID != 3 || back.Email != "ana@mail.com" {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}
