package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sellervault-backend-go/internal/config"
)

// FirebaseClients groups the clients created from one Firebase app.
// Firestore is nil unless it was requested.
type FirebaseClients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
}

// Close releases the Firestore client when present.
func (c *FirebaseClients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// InitFirebase initializes the Firebase Admin SDK from appConfig. The Auth client
// is always created; the Firestore client only when withFirestore is set.
func InitFirebase(ctx context.Context, appConfig *config.Config, withFirestore bool, logger *zap.Logger) (*FirebaseClients, error) {
	if appConfig == nil {
		return nil, errors.New("InitFirebase: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			// ADC may still be configured independently.
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FirebaseServiceAccountJSONBase64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	var fbConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	clients := &FirebaseClients{App: app}
	if withFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("app.Firestore: %w", err)
		}
		clients.Firestore = fs
		logger.Info("Firestore client initialized")
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = clients.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	clients.Auth = authClient
	logger.Info("Firebase Auth client initialized")

	return clients, nil
}

// FirestoreStore implements DocumentStore on Firestore. The document id doubles
// as the "_id" field so equality queries on "_id" work.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized")
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Save(ctx context.Context, collection string, doc Document) (Document, error) {
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}
	// Set without merge replaces the document, matching upsert semantics.
	if _, err := s.client.Collection(collection).Doc(stored.ID()).Set(ctx, map[string]interface{}(stored)); err != nil {
		return nil, fmt.Errorf("save %s/%s: %w", collection, stored.ID(), err)
	}
	return stored, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, doc Document) (Document, error) {
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}
	if _, err := s.client.Collection(collection).Doc(stored.ID()).Create(ctx, map[string]interface{}(stored)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("insert %s/%s: %w", collection, stored.ID(), ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert %s/%s: %w", collection, stored.ID(), err)
	}
	return stored, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty for Get operation")
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return snapshotDocument(snap), nil
}

func (s *FirestoreStore) Remove(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("remove %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Query(collection string) Query {
	return &firestoreQuery{query: s.client.Collection(collection).Query, collection: collection}
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreQuery struct {
	query      firestore.Query
	collection string
}

func (q *firestoreQuery) Eq(field string, value interface{}) Query {
	q.query = q.query.Where(field, "==", value)
	return q
}

func (q *firestoreQuery) Limit(n int) Query {
	if n > 0 {
		q.query = q.query.Limit(n)
	}
	return q
}

func (q *firestoreQuery) Find(ctx context.Context) (QueryResult, error) {
	iter := q.query.Documents(ctx)
	defer iter.Stop()

	var result QueryResult
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return QueryResult{}, fmt.Errorf("query %s: %w", q.collection, err)
		}
		result.Items = append(result.Items, snapshotDocument(snap))
	}
	return result, nil
}

func snapshotDocument(snap *firestore.DocumentSnapshot) Document {
	doc := Document(snap.Data())
	if doc == nil {
		doc = Document{}
	}
	if doc.ID() == "" {
		doc[IDField] = snap.Ref.ID
	}
	return doc
}
