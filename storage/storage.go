package storage

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/core/student"
	"github.com/trezcool/topphysics/storage/database"
	"github.com/trezcool/topphysics/storage/database/inmem"
	"github.com/trezcool/topphysics/storage/database/mongodb"
)

// Stores holds the repositories of the configured database.
type Stores struct {
	Students   student.Repository
	Assistants assistant.Repository

	// DB is nil when the in-memory store is used.
	DB     *mongo.Database
	client *mongo.Client
}

// Open connects to the database selected by conf.Database.URI.
// When migrate is true, indexes are ensured and pending migrations applied.
func Open(ctx context.Context, conf *core.Config, logger core.Logger, migrate bool) (*Stores, error) {
	if conf.Database.InMemory() {
		logger.Warn("using the in-memory store, data will not survive a restart")
		mem := inmemdb.Open()
		return &Stores{
			Students:   inmemdb.NewStudentRepository(mem),
			Assistants: inmemdb.NewAssistantRepository(mem),
		}, nil
	}

	client, db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	st := &Stores{
		Students:   mongodb.NewStudentRepository(db),
		Assistants: mongodb.NewAssistantRepository(db),
		DB:         db,
		client:     client,
	}
	if !migrate {
		return st, nil
	}

	if err = database.EnsureIndexes(ctx, db); err != nil {
		_ = st.Close(ctx)
		return nil, errors.Wrap(err, "ensuring indexes")
	}
	applied, err := database.Migrate(ctx, db)
	if err != nil {
		_ = st.Close(ctx)
		return nil, errors.Wrap(err, "migrating")
	}
	for _, v := range applied {
		logger.Info("applied migration", map[string]interface{}{"version": v})
	}
	return st, nil
}

func (st *Stores) Close(ctx context.Context) error {
	if st.client == nil {
		return nil
	}
	return st.client.Disconnect(ctx)
}
