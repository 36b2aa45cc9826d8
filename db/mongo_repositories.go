package db

import (
	"context"
	"fmt"
	"time"

	"geocapture/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoLocation is the stored document shape. Field names match documents
// written by earlier deployments of the service.
type mongoLocation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Lat       string             `bson:"lat"`
	Lon       string             `bson:"lon"`
	IP        string             `bson:"ip"`
	ImageURL  string             `bson:"imageUrl,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *mongoLocation) toModel() *models.LocationRecord {
	return &models.LocationRecord{
		ID:        d.ID.Hex(),
		Lat:       d.Lat,
		Lon:       d.Lon,
		IP:        d.IP,
		ImageURL:  d.ImageURL,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// MongoLocationRepository implements the LocationRepository interface for MongoDB
type MongoLocationRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoLocationRepository creates a new MongoLocationRepository
func NewMongoLocationRepository(client *mongo.Client, database, collection string) *MongoLocationRepository {
	return &MongoLocationRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

func (r *MongoLocationRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Close closes the MongoDB connection
func (r *MongoLocationRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// Ping checks that the primary is reachable
func (r *MongoLocationRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Create inserts a new record
func (r *MongoLocationRepository) Create(ctx context.Context, record *models.LocationRecord) (*models.LocationRecord, error) {
	doc := mongoLocation{
		ID:        primitive.NewObjectID(),
		Lat:       record.Lat,
		Lon:       record.Lon,
		IP:        record.IP,
		ImageURL:  record.ImageURL,
		CreatedAt: record.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	// BSON dates carry millisecond precision
	doc.CreatedAt = doc.CreatedAt.UTC().Truncate(time.Millisecond)

	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("error creating location: %w", err)
	}
	return doc.toModel(), nil
}

// FindByID finds a record by ID. Malformed IDs are reported as not found.
func (r *MongoLocationRepository) FindByID(ctx context.Context, id string) (*models.LocationRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc mongoLocation
	err = r.coll().FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding location: %w", err)
	}
	return doc.toModel(), nil
}

// FindPage returns one page of records, newest first
func (r *MongoLocationRepository) FindPage(ctx context.Context, opts models.ListOptions) ([]*models.LocationRecord, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Skip > 0 {
		findOpts.SetSkip(int64(opts.Skip))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.coll().Find(ctx, ipFilter(opts.IP), findOpts)
	if err != nil {
		return nil, fmt.Errorf("error finding locations: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*models.LocationRecord{}
	for cursor.Next(ctx) {
		var doc mongoLocation
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding location: %w", err)
		}
		records = append(records, doc.toModel())
	}
	return records, cursor.Err()
}

// FindAll returns every record, newest first
func (r *MongoLocationRepository) FindAll(ctx context.Context) ([]*models.LocationRecord, error) {
	return r.FindPage(ctx, models.ListOptions{})
}

// DeleteByID deletes a record by ID
func (r *MongoLocationRepository) DeleteByID(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll().DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("error deleting location: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every record and reports how many were removed
func (r *MongoLocationRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.coll().DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error deleting locations: %w", err)
	}
	return result.DeletedCount, nil
}

// Count returns the number of records, optionally for a single IP
func (r *MongoLocationRepository) Count(ctx context.Context, ip string) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, ipFilter(ip))
	if err != nil {
		return 0, fmt.Errorf("error counting locations: %w", err)
	}
	return count, nil
}

// CountSince returns the number of records created at or after since
func (r *MongoLocationRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("error counting recent locations: %w", err)
	}
	return count, nil
}

// DistinctIPs returns every distinct IP value
func (r *MongoLocationRepository) DistinctIPs(ctx context.Context) ([]string, error) {
	values, err := r.coll().Distinct(ctx, "ip", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error querying distinct ips: %w", err)
	}

	ips := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ips = append(ips, s)
		}
	}
	return ips, nil
}

// HourlySince groups records created at or after since by UTC date and hour
func (r *MongoLocationRepository) HourlySince(ctx context.Context, since time.Time) ([]models.HourlyBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"hour": bson.M{"$hour": "$createdAt"},
				"date": bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.date", Value: 1}, {Key: "_id.hour", Value: 1}}}},
	}

	cursor, err := r.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating hourly locations: %w", err)
	}
	defer cursor.Close(ctx)

	buckets := []models.HourlyBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("error decoding hourly buckets: %w", err)
	}
	return buckets, nil
}

func ipFilter(ip string) bson.M {
	if ip == "" {
		return bson.M{}
	}
	return bson.M{"ip": ip}
}
