package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
)

const (
	reportsCollection = "campaign_reports"
	mongoTimeout      = 5 * time.Second
)

type reportDocument struct {
	ID        string     `bson:"_id"`
	Name      string     `bson:"name"`
	Metrics   []string   `bson:"metrics"`
	Data      [][]string `bson:"data"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// MongoReportRepository implements ReportRepository on a MongoDB collection
type MongoReportRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoReportRepository connects to uri and prepares the reports
// collection of database.
func NewMongoReportRepository(ctx context.Context, uri, database string) (*MongoReportRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if err := client.Ping(c, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	r := &MongoReportRepository{
		client:     client,
		collection: client.Database(database).Collection(reportsCollection),
		now:        time.Now,
	}
	if err := r.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return r, nil
}

func (r *MongoReportRepository) createIndexes(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) Create(ctx context.Context, rec *reports.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	// stored dates keep millisecond precision
	now := r.now().UTC().Truncate(time.Millisecond)
	rec.CreatedAt, rec.UpdatedAt = now, now

	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(c, toDocument(rec)); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) Update(ctx context.Context, rec *reports.Record) error {
	doc := toDocument(rec)
	now := r.now().UTC().Truncate(time.Millisecond)

	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var updated reportDocument
	err := r.collection.FindOneAndUpdate(c,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"name":       doc.Name,
			"metrics":    doc.Metrics,
			"data":       doc.Data,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return reports.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = updated.CreatedAt, updated.UpdatedAt
	return nil
}

func (r *MongoReportRepository) Get(ctx context.Context, id uuid.UUID) (*reports.Record, error) {
	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc reportDocument
	err := r.collection.FindOne(c, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, reports.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return fromDocument(doc)
}

func (r *MongoReportRepository) List(ctx context.Context) ([]*reports.Record, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoReportRepository) Search(ctx context.Context, q string) ([]*reports.Record, error) {
	return r.find(ctx, searchFilter(q))
}

func (r *MongoReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(c, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.DeletedCount == 0 {
		return reports.ErrRecordNotFound
	}
	return nil
}

func (r *MongoReportRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoReportRepository) find(ctx context.Context, filter bson.M) ([]*reports.Record, error) {
	c, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cursor, err := r.collection.Find(c, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var docs []reportDocument
	if err := cursor.All(c, &docs); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]*reports.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// searchFilter matches names containing q literally, ignoring case.
func searchFilter(q string) bson.M {
	return bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}}
}

func toDocument(rec *reports.Record) reportDocument {
	doc := reportDocument{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Metrics:   rec.Metrics,
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if doc.Metrics == nil {
		doc.Metrics = []string{}
	}
	if doc.Data == nil {
		doc.Data = [][]string{}
	}
	return doc
}

func fromDocument(doc reportDocument) (*reports.Record, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report id %q: %w", doc.ID, err)
	}
	return &reports.Record{
		ID:        id,
		Name:      doc.Name,
		Metrics:   doc.Metrics,
		Data:      doc.Data,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}
