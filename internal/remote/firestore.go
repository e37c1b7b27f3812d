package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// FirestoreConfig locates the service-account credentials for Firestore.
type FirestoreConfig struct {
	CredentialsPath string
	ProjectID       string
}

type firestoreStore struct {
	client *firestore.Client
}

// FirestoreDial returns a DialFunc that opens a Firestore client with the configured credentials.
// A missing credentials file yields an unavailable connection instead of an error.
func FirestoreDial(cfg FirestoreConfig) DialFunc {
	return func(ctx context.Context) (Connection, func() error) {
		credentialsPath := strings.TrimSpace(cfg.CredentialsPath)
		if credentialsPath == "" {
			return Unavailable("firestore credentials path is not configured"), nil
		}
		if _, err := os.Stat(credentialsPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Unavailable(fmt.Sprintf("credentials file not found: %s", credentialsPath)), nil
			}
			return Unavailable(fmt.Sprintf("credentials file unreadable: %v", err)), nil
		}

		projectID := strings.TrimSpace(cfg.ProjectID)
		if projectID == "" {
			projectID = firestore.DetectProjectID
		}
		client, err := firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsPath))
		if err != nil {
			return Unavailable(fmt.Sprintf("firestore client init failed: %v", err)), nil
		}
		return Connected(&firestoreStore{client: client}), client.Close
	}
}

func (s *firestoreStore) Set(ctx context.Context, collection, key string, document any) error {
	if key == "" {
		return ErrDocumentKeyRequired
	}
	_, err := s.client.Collection(collection).Doc(key).Set(ctx, document)
	return err
}

func (s *firestoreStore) Delete(ctx context.Context, collection, key string) error {
	if key == "" {
		return ErrDocumentKeyRequired
	}
	_, err := s.client.Collection(collection).Doc(key).Delete(ctx)
	return err
}
