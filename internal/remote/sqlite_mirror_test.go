package remote

import (
	"context"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestMirror(t *testing.T) *SQLiteMirror {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:remote_mirror?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrator().DropTable(&MirroredDocument{}); err != nil {
		t.Fatalf("failed to reset schema: %v", err)
	}
	if err := db.AutoMigrate(&MirroredDocument{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewSQLiteMirror(db, func() time.Time {
		return time.Unix(1720000000, 0)
	})
}

func TestSQLiteMirrorSetReplacesWholeDocument(t *testing.T) {
	mirror := newTestMirror(t)
	ctx := context.Background()

	if err := mirror.Set(ctx, CollectionActivities, "AURA-1", map[string]any{"name": "Kayak", "company": "Reef"}); err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	if err := mirror.Set(ctx, CollectionActivities, "AURA-1", map[string]any{"name": "Sea Kayak"}); err != nil {
		t.Fatalf("second set failed: %v", err)
	}

	body, found, err := mirror.Get(ctx, CollectionActivities, "AURA-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !found {
		t.Fatalf("expected document to exist")
	}
	if body != `{"name":"Sea Kayak"}` {
		t.Fatalf("expected full replacement, got %s", body)
	}
}

func TestSQLiteMirrorDelete(t *testing.T) {
	mirror := newTestMirror(t)
	ctx := context.Background()

	if err := mirror.Set(ctx, CollectionActivities, "AURA-2", map[string]string{"name": "Hike"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := mirror.Delete(ctx, CollectionActivities, "AURA-2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found, _ := mirror.Get(ctx, CollectionActivities, "AURA-2"); found {
		t.Fatalf("expected document to be removed")
	}
	if err := mirror.Delete(ctx, CollectionActivities, "AURA-2"); err != nil {
		t.Fatalf("deleting an absent document should succeed: %v", err)
	}
}

func TestSQLiteMirrorDialConnects(t *testing.T) {
	mirror := newTestMirror(t)
	connection, _ := SQLiteMirrorDial(mirror)(context.Background())
	if !connection.Available() {
		t.Fatalf("expected mirror connection, reason %q", connection.Reason())
	}
	connection, _ = SQLiteMirrorDial(nil)(context.Background())
	if connection.Available() {
		t.Fatalf("expected nil mirror to be unavailable")
	}
}
