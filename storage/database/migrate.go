package database

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// Migration is a versioned, one-time document rewrite.
	Migration struct {
		Version     int
		Description string
		Up          func(ctx context.Context, db *mongo.Database) error
	}

	// MigrationStatus reports whether a Migration was applied, and when.
	MigrationStatus struct {
		Migration
		AppliedAt *time.Time
	}

	migrationRecord struct {
		Version     int       `bson:"version"`
		Description string    `bson:"description"`
		AppliedAt   time.Time `bson:"applied_at"`
	}
)

var (
	NowFunc = time.Now // mockable

	migrations []Migration
)

// Register adds m to the known migrations; versions must be unique.
// Storage packages register their migrations from init.
func Register(m Migration) {
	for _, known := range migrations {
		if known.Version == m.Version {
			panic(errors.Errorf("migration %d registered twice", m.Version))
		}
	}
	migrations = append(migrations, m)
}

// Migrations returns the registered migrations in version order.
func Migrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

func applied(ctx context.Context, db *mongo.Database) (map[int]time.Time, error) {
	cursor, err := db.Collection(MigrationsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "listing applied migrations")
	}
	defer func() { _ = cursor.Close(ctx) }()

	done := make(map[int]time.Time)
	for cursor.Next(ctx) {
		var rec migrationRecord
		if err = cursor.Decode(&rec); err != nil {
			return nil, errors.Wrap(err, "decoding migration record")
		}
		done[rec.Version] = rec.AppliedAt
	}
	return done, errors.Wrap(cursor.Err(), "listing applied migrations")
}

// Migrate applies every pending migration in version order and records it.
// It returns the versions that were applied.
func Migrate(ctx context.Context, db *mongo.Database) ([]int, error) {
	done, err := applied(ctx, db)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, m := range Migrations() {
		if _, ok := done[m.Version]; ok {
			continue
		}
		if err = Run(ctx, db, m); err != nil {
			return versions, err
		}
		versions = append(versions, m.Version)
	}
	return versions, nil
}

// Run applies m regardless of its recorded state; migrations are written to be re-runnable.
func Run(ctx context.Context, db *mongo.Database, m Migration) error {
	if err := m.Up(ctx, db); err != nil {
		return errors.Wrapf(err, "running migration %d", m.Version)
	}
	rec := migrationRecord{Version: m.Version, Description: m.Description, AppliedAt: NowFunc().UTC()}
	_, err := db.Collection(MigrationsCollection).ReplaceOne(
		ctx,
		bson.M{"version": m.Version},
		rec,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrapf(err, "recording migration %d", m.Version)
}

// Status lists every registered migration with its applied time, if any.
func Status(ctx context.Context, db *mongo.Database) ([]MigrationStatus, error) {
	done, err := applied(ctx, db)
	if err != nil {
		return nil, err
	}
	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range Migrations() {
		st := MigrationStatus{Migration: m}
		if at, ok := done[m.Version]; ok {
			st.AppliedAt = &at
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Find returns the registered migration with version.
func Find(version int) (Migration, bool) {
	for _, m := range migrations {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}
