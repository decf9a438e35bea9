package stamps

import (
	"context"
	"errors"
	"regexp"

	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kvDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

type MongoKV struct {
	mgo   *mongo.Client
	coll  *mongo.Collection
	useTx bool
}

func NewMongoKV(ctx context.Context, uri, database string, useTx bool) (*MongoKV, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	coll := client.Database(database).Collection("kv")
	return &MongoKV{client, coll, useTx}, nil
}

func (m *MongoKV) Get(ctx context.Context, key string) (string, error) {
	var doc kvDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", model.ErrKeyNotFound
		}
		return "", err
	}
	return doc.Value, nil
}

func (m *MongoKV) Set(ctx context.Context, key string, value string) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Без replica set транзакций нет: тогда упорядоченный bulk write
func (m *MongoKV) SetMany(ctx context.Context, values map[string]string) error {
	writes := make([]mongo.WriteModel, 0, len(values))
	for k, v := range values {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": k}).
			SetUpdate(bson.M{"$set": bson.M{"value": v}}).
			SetUpsert(true))
	}
	if !m.useTx {
		_, err := m.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		return err
	}

	sess, err := m.mgo.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return m.coll.BulkWrite(sc, writes, options.BulkWrite().SetOrdered(true))
	})
	return err
}

func (m *MongoKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	result, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer result.Close(ctx)

	var keys []string
	for result.Next(ctx) {
		var doc kvDocument
		err := result.Decode(&doc)
		if err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, result.Err()
}

func (m *MongoKV) Close(ctx context.Context) error {
	return m.mgo.Disconnect(ctx)
}
