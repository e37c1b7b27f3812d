package remote

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type recordingStore struct {
	sets    int
	deletes int
}

func (s *recordingStore) Set(context.Context, string, string, any) error {
	s.sets++
	return nil
}

func (s *recordingStore) Delete(context.Context, string, string) error {
	s.deletes++
	return nil
}

func TestUnavailableConnectionCarriesReason(t *testing.T) {
	connection := Unavailable("credentials file not found: /tmp/x.json")
	if connection.Available() {
		t.Fatalf("expected connection to be unavailable")
	}
	if connection.Store() != nil {
		t.Fatalf("expected nil store")
	}
	if connection.Reason() != "credentials file not found: /tmp/x.json" {
		t.Fatalf("unexpected reason %q", connection.Reason())
	}
	if Connected(nil).Available() {
		t.Fatalf("a nil store must not be reported as connected")
	}
}

func TestLazyConnectorCachesSuccessfulDial(t *testing.T) {
	store := &recordingStore{}
	dials := 0
	closes := 0
	connector := NewLazyConnector(func(context.Context) (Connection, func() error) {
		dials++
		return Connected(store), func() error {
			closes++
			return nil
		}
	}, nil)

	for i := 0; i < 3; i++ {
		if !connector.Connect(context.Background()).Available() {
			t.Fatalf("expected available connection on attempt %d", i)
		}
	}
	if dials != 1 {
		t.Fatalf("expected a single dial, got %d", dials)
	}

	if err := connector.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closes != 1 {
		t.Fatalf("expected closer to run once, got %d", closes)
	}
	connector.Connect(context.Background())
	if dials != 2 {
		t.Fatalf("expected redial after close, got %d dials", dials)
	}
}

func TestLazyConnectorRetriesAfterFailedDial(t *testing.T) {
	store := &recordingStore{}
	dials := 0
	connector := NewLazyConnector(func(context.Context) (Connection, func() error) {
		dials++
		if dials == 1 {
			return Unavailable("network down"), nil
		}
		return Connected(store), nil
	}, nil)

	first := connector.Connect(context.Background())
	if first.Available() || first.Reason() != "network down" {
		t.Fatalf("unexpected first connection: available=%v reason=%q", first.Available(), first.Reason())
	}
	if !connector.Connect(context.Background()).Available() {
		t.Fatalf("expected second dial to connect")
	}
	if dials != 2 {
		t.Fatalf("expected two dials, got %d", dials)
	}
}

func TestDisabledDialIsUnavailable(t *testing.T) {
	connector := NewLazyConnector(DisabledDial, nil)
	connection := connector.Connect(context.Background())
	if connection.Available() {
		t.Fatalf("expected disabled connector to be unavailable")
	}
	if err := connector.Close(); err != nil {
		t.Fatalf("close of never-connected connector failed: %v", err)
	}
}

func TestFirestoreDialMissingCredentials(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config", "firebase-service-account.json")
	connection, closer := FirestoreDial(FirestoreConfig{CredentialsPath: missing})(context.Background())
	if connection.Available() {
		t.Fatalf("expected unavailable connection")
	}
	if closer != nil {
		t.Fatalf("expected no closer for unavailable connection")
	}
	if !strings.Contains(connection.Reason(), missing) {
		t.Fatalf("expected reason to name the credentials path, got %q", connection.Reason())
	}

	connection, _ = FirestoreDial(FirestoreConfig{})(context.Background())
	if connection.Available() {
		t.Fatalf("expected unavailable connection without a path")
	}
}

func TestFirestoreStoreRejectsEmptyKey(t *testing.T) {
	store := &firestoreStore{}
	if err := store.Set(context.Background(), CollectionActivities, "", map[string]string{}); !errors.Is(err, ErrDocumentKeyRequired) {
		t.Fatalf("expected ErrDocumentKeyRequired, got %v", err)
	}
	if err := store.Delete(context.Background(), CollectionActivities, ""); !errors.Is(err, ErrDocumentKeyRequired) {
		t.Fatalf("expected ErrDocumentKeyRequired, got %v", err)
	}
}
