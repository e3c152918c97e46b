package reports

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDirectory resolves user IDs to display names. Implementations
// return a map that may be missing IDs it could not resolve.
type UserDirectory interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// MongoDirectory looks up users in the main application's MongoDB,
// which owns the user accounts this service only references by ID.
type MongoDirectory struct {
	col *mongo.Collection
}

// NewMongoDirectory connects to the user database. The usuarios
// collection stores _id either as ObjectID or as a plain string.
func NewMongoDirectory(ctx context.Context, url, dbName string) (*MongoDirectory, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &MongoDirectory{col: client.Database(dbName).Collection("usuarios")}, nil
}

// Names implements UserDirectory.
func (d *MongoDirectory) Names(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var objectIDs []primitive.ObjectID
	var stringIDs []string
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		} else {
			stringIDs = append(stringIDs, id)
		}
	}

	var clauses []bson.M
	if len(objectIDs) > 0 {
		clauses = append(clauses, bson.M{"_id": bson.M{"$in": objectIDs}})
	}
	if len(stringIDs) > 0 {
		clauses = append(clauses, bson.M{"_id": bson.M{"$in": stringIDs}})
	}
	filter := clauses[0]
	if len(clauses) > 1 {
		filter = bson.M{"$or": clauses}
	}

	cursor, err := d.col.Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1, "nombre": 1}))
	if err != nil {
		return nil, fmt.Errorf("querying usuarios: %w", err)
	}
	defer cursor.Close(ctx)

	names := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID     any    `bson:"_id"`
			Nombre string `bson:"nombre"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding usuario: %w", err)
		}
		id := fmt.Sprintf("%v", doc.ID)
		if oid, ok := doc.ID.(primitive.ObjectID); ok {
			id = oid.Hex()
		}
		name := doc.Nombre
		if name == "" {
			name = "Usuario " + id
		}
		names[id] = name
	}
	return names, cursor.Err()
}
