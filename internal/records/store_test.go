package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	store, err := NewStore(StoreConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return store
}

// failedQueryLogger records every query GORM traces with an error.
type failedQueryLogger struct {
	failures []error
}

func (l *failedQueryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }
func (l *failedQueryLogger) Info(context.Context, string, ...interface{})     {}
func (l *failedQueryLogger) Warn(context.Context, string, ...interface{})     {}
func (l *failedQueryLogger) Error(context.Context, string, ...interface{})    {}

func (l *failedQueryLogger) Trace(_ context.Context, _ time.Time, _ func() (string, int64), err error) {
	if err != nil {
		l.failures = append(l.failures, err)
	}
}

func mustRecordID(t *testing.T, value string) RecordID {
	t.Helper()
	id, err := NewRecordID(value)
	if err != nil {
		t.Fatalf("unexpected record id error: %v", err)
	}
	return id
}

func TestNewRecordIDRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "  ", "0", "-4", "abc", "1.5"} {
		if _, err := NewRecordID(input); !errors.Is(err, ErrInvalidRecordID) {
			t.Fatalf("expected ErrInvalidRecordID for %q, got %v", input, err)
		}
	}
	id := mustRecordID(t, " 42 ")
	if id.String() != "42" {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestSaveRecordReplacesCoreFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := mustRecordID(t, "10")

	if err := store.SaveRecord(ctx, id, Snapshot{Type: TypeActivity, Title: "Kayak", Slug: "kayak"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveRecord(ctx, id, Snapshot{Type: TypeActivity, Title: "Sea Kayak", Slug: "sea-kayak", Status: "publish"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	snapshot, err := store.Record(ctx, id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snapshot.Title != "Sea Kayak" || snapshot.Slug != "sea-kayak" || snapshot.Status != "publish" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestSaveRecordRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveRecord(context.Background(), mustRecordID(t, "1"), Snapshot{Type: "page"})
	if !errors.Is(err, ErrUnknownRecordType) {
		t.Fatalf("expected ErrUnknownRecordType, got %v", err)
	}
}

func TestMetaRoundTripAndMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := mustRecordID(t, "3")

	value, err := store.Meta(ctx, id, "_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value for missing key, got %q", value)
	}

	if err := store.UpdateMeta(ctx, id, "_aura_activity_date", "2024-07-01"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := store.UpdateMeta(ctx, id, "_aura_activity_date", "2024-07-02"); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	value, err = store.Meta(ctx, id, "_aura_activity_date")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if value != "2024-07-02" {
		t.Fatalf("expected replaced value, got %q", value)
	}
}

func TestMetaMissingKeyIsNotAQueryFailure(t *testing.T) {
	store := newTestStore(t)
	queryLogger := &failedQueryLogger{}
	store.db = store.db.Session(&gorm.Session{Logger: queryLogger})

	value, err := store.Meta(context.Background(), mustRecordID(t, "4"), "_aura_activity_code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}
	if len(queryLogger.failures) != 0 {
		t.Fatalf("expected no failed queries to be traced, got %v", queryLogger.failures)
	}
}

func TestTermsOrderedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := mustRecordID(t, "5")
	if err := store.SaveRecord(ctx, id, Snapshot{Type: TypeActivity, Title: "Hike"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{"Zephyr Tours", "Alpine Co", "Alpine Co"} {
		if _, err := store.AssignTerm(ctx, id, TaxonomyCompany, name); err != nil {
			t.Fatalf("assign %q failed: %v", name, err)
		}
	}

	terms, err := store.Terms(ctx, id, TaxonomyCompany)
	if err != nil {
		t.Fatalf("terms failed: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}
	if terms[0].Name != "Alpine Co" || terms[1].Name != "Zephyr Tours" {
		t.Fatalf("unexpected term order: %+v", terms)
	}
}

func TestAssignTermRejectsUnknownTaxonomy(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AssignTerm(context.Background(), mustRecordID(t, "5"), "region", "North")
	if !errors.Is(err, ErrUnknownTaxonomy) {
		t.Fatalf("expected ErrUnknownTaxonomy, got %v", err)
	}
}

func TestAttachmentResolvesBaseName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveAttachment(ctx, Attachment{
		AttachmentID: 12,
		FilePath:     "/srv/uploads/2024/07/waiver.pdf",
		PublicURL:    "https://cdn.example.com/2024/07/waiver.pdf",
	}); err != nil {
		t.Fatalf("save attachment failed: %v", err)
	}

	file, err := store.Attachment(ctx, mustRecordID(t, "12"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if file.Name != "waiver.pdf" {
		t.Fatalf("unexpected name %q", file.Name)
	}
	if file.URL != "https://cdn.example.com/2024/07/waiver.pdf" {
		t.Fatalf("unexpected url %q", file.URL)
	}

	if _, err := store.Attachment(ctx, mustRecordID(t, "99")); !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestDeleteRecordRemovesMetaAndAssignments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := mustRecordID(t, "8")
	if err := store.SaveRecord(ctx, id, Snapshot{Type: TypeActivity, Title: "Dive"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.UpdateMeta(ctx, id, "_aura_activity_code", "AURA-8"); err != nil {
		t.Fatalf("meta failed: %v", err)
	}
	if _, err := store.AssignTerm(ctx, id, TaxonomyCompany, "Reef Divers"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if err := store.DeleteRecord(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.RecordType(ctx, id); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if value, _ := store.Meta(ctx, id, "_aura_activity_code"); value != "" {
		t.Fatalf("expected meta to be removed, got %q", value)
	}
	if err := store.DeleteRecord(ctx, id); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}
