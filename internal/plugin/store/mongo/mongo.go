package mongo

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/openclaw/vivian-memory/internal/config"
	"github.com/openclaw/vivian-memory/internal/model"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	dbName         = "vivian_memory"
	collectionName = "memories"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "mongo",
		Loader: func(ctx context.Context) (registrystore.MemoryStore, error) {
			cfg := config.FromContext(ctx)
			if cfg == nil || cfg.DBURL == "" {
				return nil, fmt.Errorf("mongo store: VIVIAN_MEMORY_DB_URL is required")
			}
			opts := options.Client().ApplyURI(cfg.DBURL)
			if cfg.DBMaxOpenConns > 0 {
				opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
			}
			client, err := mongo.Connect(opts)
			if err != nil {
				return nil, fmt.Errorf("mongo store: connect: %w", err)
			}
			if err := client.Ping(ctx, nil); err != nil {
				return nil, fmt.Errorf("mongo store: ping: %w", err)
			}
			return &MongoStore{
				client: client,
				coll:   client.Database(dbName).Collection(collectionName),
			}, nil
		},
	})
	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &mongoMigrator{}})
}

type mongoMigrator struct{}

func (m *mongoMigrator) Name() string { return "mongo-indexes" }
func (m *mongoMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "mongo" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DBURL))
	if err != nil {
		return fmt.Errorf("mongo migrate: connect: %w", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(dbName).Collection(collectionName)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "created", Value: -1}}},
	})
	return err
}

// memoryDoc is the BSON representation of a memory row.
type memoryDoc struct {
	ID          string   `bson:"_id"`
	Text        string   `bson:"text"`
	Source      string   `bson:"source"`
	Type        string   `bson:"type"`
	Weight      float64  `bson:"weight"`
	Tags        []string `bson:"tags"`
	Created     int64    `bson:"created"`
	Accessed    int64    `bson:"accessed"`
	AccessCount int64    `bson:"access_count"`
}

func toDoc(m model.Memory) memoryDoc {
	return memoryDoc{
		ID:          m.ID.String(),
		Text:        m.Text,
		Source:      m.Source,
		Type:        m.Type,
		Weight:      m.Weight,
		Tags:        m.Tags,
		Created:     m.Created,
		Accessed:    m.Accessed,
		AccessCount: m.AccessCount,
	}
}

func fromDoc(d memoryDoc) (model.Memory, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.Memory{}, fmt.Errorf("mongo store: bad memory id %q: %w", d.ID, err)
	}
	return model.Memory{
		ID:          id,
		Text:        d.Text,
		Source:      d.Source,
		Type:        d.Type,
		Weight:      d.Weight,
		Tags:        d.Tags,
		Created:     d.Created,
		Accessed:    d.Accessed,
		AccessCount: d.AccessCount,
	}, nil
}

// MongoStore implements MemoryStore on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (s *MongoStore) InsertMemories(ctx context.Context, memories []model.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	docs := make([]interface{}, len(memories))
	for i, m := range memories {
		docs[i] = toDoc(m)
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) GetByIDs(ctx context.Context, ids []uuid.UUID, typeFilter string) ([]model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}
	filter := bson.M{"_id": bson.M{"$in": idStrings}}
	if typeFilter != "" && typeFilter != registrystore.TypeAll {
		filter["type"] = typeFilter
	}
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []model.Memory
	for cursor.Next(ctx) {
		var doc memoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		m, err := fromDoc(doc)
		if err != nil {
			log.Warn("Skipping malformed memory document", "err", err)
			continue
		}
		rows = append(rows, m)
	}
	return rows, cursor.Err()
}

func (s *MongoStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id.String()})
	return count > 0, err
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	return err
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) CountByType(ctx context.Context) ([]registrystore.TypeCount, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []registrystore.TypeCount
	for cursor.Next(ctx) {
		var group struct {
			Type  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&group); err != nil {
			return nil, err
		}
		counts = append(counts, registrystore.TypeCount{Type: group.Type, Count: group.Count})
	}
	return counts, cursor.Err()
}

func (s *MongoStore) Recent(ctx context.Context, n int) ([]model.Memory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}}).SetLimit(int64(n))
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []model.Memory
	for cursor.Next(ctx) {
		var doc memoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		m, err := fromDoc(doc)
		if err != nil {
			log.Warn("Skipping malformed memory document", "err", err)
			continue
		}
		rows = append(rows, m)
	}
	return rows, cursor.Err()
}

func (s *MongoStore) BumpAccessStats(ctx context.Context, ids []uuid.UUID, now int64) error {
	if len(ids) == 0 {
		return nil
	}
	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": idStrings}},
		bson.M{
			"$set": bson.M{"accessed": now},
			"$inc": bson.M{"access_count": 1},
		},
	)
	return err
}

var _ registrystore.MemoryStore = (*MongoStore)(nil)
