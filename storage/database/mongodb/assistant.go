package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/storage/database"
)

const countersCollection = "counters"

type (
	assistantDoc struct {
		ID           int       `bson:"id"`
		Name         string    `bson:"name"`
		Username     string    `bson:"username"`
		Phone        string    `bson:"phone"`
		Role         string    `bson:"role"`
		IsActive     bool      `bson:"is_active"`
		PasswordHash []byte    `bson:"password_hash"`
		CreatedAt    time.Time `bson:"created_at"`
		UpdatedAt    time.Time `bson:"updated_at"`
		LastLogin    time.Time `bson:"last_login"`
	}

	counterDoc struct {
		Seq int `bson:"seq"`
	}

	assistantRepository struct {
		coll     *mongo.Collection
		counters *mongo.Collection
	}
)

var _ assistant.Repository = (*assistantRepository)(nil)

func NewAssistantRepository(db *mongo.Database) assistant.Repository {
	return &assistantRepository{
		coll:     db.Collection(database.AssistantsCollection),
		counters: db.Collection(countersCollection),
	}
}

func (doc assistantDoc) toAssistant() assistant.Assistant {
	return assistant.Assistant{
		ID:           doc.ID,
		Name:         doc.Name,
		Username:     doc.Username,
		Phone:        doc.Phone,
		Role:         doc.Role,
		IsActive:     doc.IsActive,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		LastLogin:    doc.LastLogin,
	}
}

func toAssistantDoc(a assistant.Assistant) assistantDoc {
	return assistantDoc{
		ID:           a.ID,
		Name:         a.Name,
		Username:     a.Username,
		Phone:        a.Phone,
		Role:         a.Role,
		IsActive:     a.IsActive,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		LastLogin:    a.LastLogin,
	}
}

// nextID atomically increments the assistants sequence.
func (repo *assistantRepository) nextID(ctx context.Context) (int, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter counterDoc
	err := repo.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": database.AssistantsCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, errors.Wrap(err, "incrementing assistants sequence")
	}
	return counter.Seq, nil
}

func (repo *assistantRepository) CreateAssistant(ctx context.Context, a assistant.Assistant) (assistant.Assistant, error) {
	id, err := repo.nextID(ctx)
	if err != nil {
		return assistant.Assistant{}, err
	}
	a.ID = id
	if _, err = repo.coll.InsertOne(ctx, toAssistantDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return assistant.Assistant{}, assistant.ErrUsernameExists
		}
		return assistant.Assistant{}, errors.Wrap(err, "inserting assistant")
	}
	return a, nil
}

func (repo *assistantRepository) QueryAllAssistants(ctx context.Context) ([]assistant.Assistant, error) {
	cursor, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "finding assistants")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []assistantDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding assistants")
	}
	assistants := make([]assistant.Assistant, 0, len(docs))
	for _, doc := range docs {
		assistants = append(assistants, doc.toAssistant())
	}
	return assistants, nil
}

func (repo *assistantRepository) getOne(ctx context.Context, filter bson.M) (assistant.Assistant, error) {
	var doc assistantDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return assistant.Assistant{}, assistant.ErrNotFound
		}
		return assistant.Assistant{}, errors.Wrap(err, "finding assistant")
	}
	return doc.toAssistant(), nil
}

func (repo *assistantRepository) GetAssistantByID(ctx context.Context, id int) (assistant.Assistant, error) {
	return repo.getOne(ctx, bson.M{"id": id})
}

func (repo *assistantRepository) GetAssistantByUsername(ctx context.Context, username string) (assistant.Assistant, error) {
	return repo.getOne(ctx, bson.M{"username": username})
}

func (repo *assistantRepository) UpdateAssistant(ctx context.Context, a assistant.Assistant) (assistant.Assistant, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": a.ID}, toAssistantDoc(a))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return assistant.Assistant{}, assistant.ErrUsernameExists
		}
		return assistant.Assistant{}, errors.Wrap(err, "updating assistant")
	}
	if res.MatchedCount == 0 {
		return assistant.Assistant{}, assistant.ErrNotFound
	}
	return a, nil
}

func (repo *assistantRepository) DeleteAssistant(ctx context.Context, id int) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrap(err, "deleting assistant")
	}
	if res.DeletedCount == 0 {
		return assistant.ErrNotFound
	}
	return nil
}
