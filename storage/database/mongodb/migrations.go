package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/topphysics/core/student"
	"github.com/trezcool/topphysics/storage/database"
)

// NormalizeStudentsVersion is the migration rewriting legacy student documents.
const NormalizeStudentsVersion = 1

func init() {
	database.Register(database.Migration{
		Version:     NormalizeStudentsVersion,
		Description: "normalize legacy homework values, repair week records and backfill revisions",
		Up:          normalizeStudents,
	})
}

// normalizeStudents rewrites every student document in its current shape:
// homework true/false/null/"Not Complete" become enumerated strings, weeks are repaired
// to 20 records and a missing revision starts at 1. Normalized documents are rewritten unchanged.
func normalizeStudents(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(database.StudentsCollection)
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return errors.Wrap(err, "finding students")
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		var raw rawStudentDoc
		if err = cursor.Decode(&raw); err != nil {
			return errors.Wrap(err, "decoding student")
		}
		s := decodeStudent(raw)
		if s.Revision < 1 {
			s.Revision = 1
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = student.NowFunc().UTC()
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = s.CreatedAt
		}
		if _, err = coll.ReplaceOne(ctx, bson.M{"_id": cursor.Current.Lookup("_id")}, toStudentDoc(s)); err != nil {
			return errors.Wrapf(err, "rewriting student %d", s.ID)
		}
	}
	return errors.Wrap(cursor.Err(), "iterating students")
}
