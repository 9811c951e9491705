package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	depmaperrors "github.com/matzehuels/depmap/pkg/errors"
)

// latestID is the _id of the document holding the current snapshot.
const latestID = "latest"

// MongoConfig locates the snapshot collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // per operation, default 10s
}

// MongoStore keeps the current snapshot under _id "latest" and every saved
// snapshot under its own ID.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// snapshotDoc wraps the JSON encoding of a snapshot. Records are stored as
// JSON so that nil-versus-empty list handling matches the file store.
type snapshotDoc struct {
	ID         string    `bson:"_id"`
	SnapshotID string    `bson:"snapshot_id"`
	CreatedAt  time.Time `bson:"created_at"`
	Packages   int       `bson:"packages"`
	Data       []byte    `bson:"data"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeNetwork, err, "connect to %s", cfg.URI)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeNetwork, err, "ping %s", cfg.URI)
	}
	return &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}, nil
}

func newSnapshotDoc(id string, s *Snapshot) (snapshotDoc, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, s); err != nil {
		return snapshotDoc{}, err
	}
	return snapshotDoc{
		ID:         id,
		SnapshotID: s.ID,
		CreatedAt:  s.CreatedAt,
		Packages:   len(s.Packages),
		Data:       buf.Bytes(),
	}, nil
}

func (d snapshotDoc) snapshot() (*Snapshot, error) {
	return ReadSnapshot(bytes.NewReader(d.Data))
}

// Save writes s as the latest snapshot and appends it to the history.
func (m *MongoStore) Save(ctx context.Context, s *Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	latest, err := newSnapshotDoc(latestID, s)
	if err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "encode snapshot")
	}
	history := latest
	history.ID = s.ID

	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": history.ID}, history, opts); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "save snapshot %s", s.ID)
	}
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": latestID}, latest, opts); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "save latest snapshot")
	}
	return nil
}

// Load reads the latest snapshot.
func (m *MongoStore) Load(ctx context.Context) (*Snapshot, error) {
	return m.LoadID(ctx, latestID)
}

// LoadID reads a snapshot by ID from the history.
func (m *MongoStore) LoadID(ctx context.Context, id string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc snapshotDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "load snapshot %s", id)
	}
	s, err := doc.snapshot()
	if err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "decode snapshot %s", id)
	}
	return s, nil
}

// Close disconnects the client.
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
