package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs the remote contract with one MongoDB database holding the
// profiles, entries, habits, habit_logs and accounts collections.
type MongoStore struct {
	client    *mongo.Client
	profiles  *mongo.Collection
	entries   *mongo.Collection
	habits    *mongo.Collection
	habitLogs *mongo.Collection
	accounts  *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	// Verify connection quickly
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}

	db := cli.Database(dbName)
	s := &MongoStore{
		client:    cli,
		profiles:  db.Collection("profiles"),
		entries:   db.Collection("entries"),
		habits:    db.Collection("habits"),
		habitLogs: db.Collection("habit_logs"),
		accounts:  db.Collection("accounts"),
	}

	// Content rows are addressed by (owner_id, day_bucket); enforce it.
	bucketIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner_id", Value: 1},
			{Key: "day_bucket", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = s.entries.Indexes().CreateOne(ctx, bucketIndex)
	_, _ = s.habitLogs.Indexes().CreateOne(ctx, bucketIndex)
	_, _ = s.habits.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})

	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ---------- PROFILES (wrapped key material) ----------

func (s *MongoStore) GetKeyMaterial(ctx context.Context, userID string) (KeyMaterial, error) {
	var km KeyMaterial
	err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&km)
	if err == mongo.ErrNoDocuments {
		return KeyMaterial{}, ErrNotFound
	}
	return km, err
}

func (s *MongoStore) PutKeyMaterial(ctx context.Context, km KeyMaterial) error {
	if km.UserID == "" {
		return errors.New("empty user id")
	}
	_, err := s.profiles.UpdateByID(
		ctx,
		km.UserID,
		bson.M{
			"$set": bson.M{
				"wrapped_master_key":       km.WrappedMasterKey,
				"wrapped_master_key_nonce": km.WrappedMasterKeyNonce,
				"wrapped_bucket_key":       km.WrappedBucketKey,
				"wrapped_bucket_key_nonce": km.WrappedBucketKeyNonce,
				"kdf":                      km.KDF,
				"updatedAt":                time.Now(),
			},
			"$setOnInsert": bson.M{
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) DeleteKeyMaterial(ctx context.Context, userID string) error {
	_, err := s.profiles.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

// ---------- ENTRIES ----------

func (s *MongoStore) UpsertEntry(ctx context.Context, row EntryRow) error {
	return upsertByBucket(ctx, s.entries, row.OwnerID, row.DayBucket, bson.M{
		"month_bucket": row.MonthBucket,
		"ciphertext":   row.Ciphertext,
		"nonce":        row.Nonce,
	})
}

func (s *MongoStore) GetEntryByDay(ctx context.Context, ownerID, dayBucket string) (EntryRow, error) {
	var row EntryRow
	err := s.entries.FindOne(ctx, bson.M{"owner_id": ownerID, "day_bucket": dayBucket}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return EntryRow{}, ErrNotFound
	}
	return row, err
}

func (s *MongoStore) ListEntriesByMonth(ctx context.Context, ownerID, monthBucket string) ([]EntryRow, error) {
	cur, err := s.entries.Find(ctx, bson.M{"owner_id": ownerID, "month_bucket": monthBucket})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []EntryRow
	for cur.Next(ctx) {
		var row EntryRow
		if err := cur.Decode(&row); err == nil {
			rows = append(rows, row)
		}
	}
	return rows, cur.Err()
}

// ---------- HABITS ----------

func (s *MongoStore) ReplaceHabits(ctx context.Context, ownerID string, rows []HabitRow) error {
	if ownerID == "" {
		return errors.New("empty owner id")
	}
	// Delete-and-reinsert keeps the collection exactly in sync with the
	// plaintext habit list; acceptable because habit lists are small.
	if _, err := s.habits.DeleteMany(ctx, bson.M{"owner_id": ownerID}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		r.OwnerID = ownerID
		docs = append(docs, r)
	}
	_, err := s.habits.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) ListHabits(ctx context.Context, ownerID string) ([]HabitRow, error) {
	cur, err := s.habits.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []HabitRow
	for cur.Next(ctx) {
		var row HabitRow
		if err := cur.Decode(&row); err == nil {
			rows = append(rows, row)
		}
	}
	return rows, cur.Err()
}

// ---------- HABIT LOGS ----------

func (s *MongoStore) UpsertHabitLog(ctx context.Context, row HabitLogRow) error {
	return upsertByBucket(ctx, s.habitLogs, row.OwnerID, row.DayBucket, bson.M{
		"month_bucket": row.MonthBucket,
		"ciphertext":   row.Ciphertext,
		"nonce":        row.Nonce,
	})
}

func (s *MongoStore) GetHabitLogByDay(ctx context.Context, ownerID, dayBucket string) (HabitLogRow, error) {
	var row HabitLogRow
	err := s.habitLogs.FindOne(ctx, bson.M{"owner_id": ownerID, "day_bucket": dayBucket}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return HabitLogRow{}, ErrNotFound
	}
	return row, err
}

func (s *MongoStore) ListHabitLogsByMonth(ctx context.Context, ownerID, monthBucket string) ([]HabitLogRow, error) {
	cur, err := s.habitLogs.Find(ctx, bson.M{"owner_id": ownerID, "month_bucket": monthBucket})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []HabitLogRow
	for cur.Next(ctx) {
		var row HabitLogRow
		if err := cur.Decode(&row); err == nil {
			rows = append(rows, row)
		}
	}
	return rows, cur.Err()
}

// ---------- ACCOUNTS ----------

func (s *MongoStore) GetAccount(ctx context.Context, userID string) (Account, error) {
	var acct Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": userID}).Decode(&acct)
	if err == mongo.ErrNoDocuments {
		return Account{}, ErrNotFound
	}
	return acct, err
}

func (s *MongoStore) PutAccount(ctx context.Context, acct Account) error {
	if acct.UserID == "" {
		return errors.New("empty user id")
	}
	_, err := s.accounts.UpdateByID(
		ctx,
		acct.UserID,
		bson.M{
			"$set": bson.M{
				"username":  acct.Username,
				"email":     acct.Email,
				"updatedAt": time.Now(),
			},
			"$setOnInsert": bson.M{
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func upsertByBucket(ctx context.Context, coll *mongo.Collection, ownerID, dayBucket string, fields bson.M) error {
	if ownerID == "" {
		return errors.New("empty owner id")
	}
	if dayBucket == "" {
		return errors.New("empty day bucket")
	}
	fields["updatedAt"] = time.Now()
	_, err := coll.UpdateOne(
		ctx,
		bson.M{"owner_id": ownerID, "day_bucket": dayBucket},
		bson.M{
			"$set": fields,
			"$setOnInsert": bson.M{
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
