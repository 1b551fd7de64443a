package mongodb

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/student"
	"github.com/trezcool/topphysics/storage/database"
)

// sortable student fields
var studentSortFields = map[string]string{
	"id":          "id",
	"name":        "name",
	"grade":       "grade",
	"school":      "school",
	"main_center": "main_center",
	"created_at":  "created_at",
}

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: db.Collection(database.StudentsCollection)}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if _, err := repo.coll.InsertOne(ctx, toStudentDoc(s)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrIDExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context, ordering ...core.DBOrdering) ([]student.Student, error) {
	sortDoc := bson.D{}
	for _, ord := range ordering {
		field, ok := studentSortFields[ord.Field]
		if !ok {
			continue
		}
		direction := -1
		if ord.Ascending {
			direction = 1
		}
		sortDoc = append(sortDoc, bson.E{Key: field, Value: direction})
	}
	sortDoc = append(sortDoc, bson.E{Key: "id", Value: 1})

	cursor, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(sortDoc))
	if err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	defer func() { _ = cursor.Close(ctx) }()

	students := make([]student.Student, 0)
	for cursor.Next(ctx) {
		var doc rawStudentDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding student")
		}
		students = append(students, decodeStudent(doc))
	}
	if err = cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating students")
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var doc rawStudentDoc
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return decodeStudent(doc), nil
}

func (repo *studentRepository) UpdateStudentProfile(ctx context.Context, s student.Student) (student.Student, error) {
	update := bson.M{
		"$set": bson.M{
			"name":          s.Name,
			"grade":         s.Grade,
			"school":        s.School,
			"phone":         s.Phone,
			"parents_phone": s.ParentsPhone,
			"main_center":   s.MainCenter,
			"age":           s.Age,
			"updated_at":    s.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc rawStudentDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"id": s.ID}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return decodeStudent(doc), nil
}

// weekUpdate builds the positional update of one week element.
func weekUpdate(week int, patch student.WeekPatch) bson.M {
	prefix := fmt.Sprintf("weeks.%d.", week-1)
	set := bson.M{
		"updated_at": student.NowFunc().UTC(),
	}
	if patch.Attended != nil {
		set[prefix+"attended"] = *patch.Attended
	}
	if patch.LastAttendance != nil {
		set[prefix+"lastAttendance"] = patch.LastAttendance.UTC()
	}
	if patch.LastAttendanceCenter != nil {
		set[prefix+"lastAttendanceCenter"] = *patch.LastAttendanceCenter
	}
	if patch.HWDone != nil {
		set[prefix+"hwDone"] = string(*patch.HWDone)
	}
	if patch.Quiz != nil {
		set[prefix+"quizDegree"] = patch.Quiz.Value
	}
	if patch.MessageState != nil {
		set[prefix+"message_state"] = *patch.MessageState
	}
	return bson.M{
		"$set": set,
		"$inc": bson.M{"revision": 1},
	}
}

func (repo *studentRepository) UpdateWeek(ctx context.Context, id, week int, expectedRevision int64, patch student.WeekPatch) (student.WeekRecord, error) {
	if patch.IsEmpty() {
		return student.WeekRecord{}, student.ErrEmptyPatch
	}
	filter := bson.M{"id": id, fmt.Sprintf("weeks.%d", week-1): bson.M{"$exists": true}}
	if expectedRevision != student.AnyRevision {
		filter["revision"] = expectedRevision
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc rawStudentDoc
	err := repo.coll.FindOneAndUpdate(ctx, filter, weekUpdate(week, patch), opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		// tell a missing student from a lost race
		n, cErr := repo.coll.CountDocuments(ctx, bson.M{"id": id})
		switch {
		case cErr != nil:
			return student.WeekRecord{}, errors.Wrap(cErr, "counting students")
		case n == 0:
			return student.WeekRecord{}, student.ErrNotFound
		case expectedRevision != student.AnyRevision:
			return student.WeekRecord{}, student.ErrRevisionMismatch
		}
		return student.WeekRecord{}, errors.Errorf("student %d has no week %d record", id, week)
	}
	if err != nil {
		return student.WeekRecord{}, errors.Wrap(err, "updating student week")
	}

	s := decodeStudent(doc)
	wr, _ := s.Week(week)
	return wr, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if res.DeletedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}
