package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredDocument stores a projected document as JSON in the local database.
type MirroredDocument struct {
	Collection       string `gorm:"column:collection;primaryKey;size:64;not null"`
	DocumentKey      string `gorm:"column:document_key;primaryKey;size:190;not null"`
	BodyJSON         string `gorm:"column:body_json;type:text;not null"`
	WrittenAtSeconds int64  `gorm:"column:written_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (MirroredDocument) TableName() string {
	return "remote_documents"
}

// SQLiteMirror is a DocumentStore backed by a GORM table, used when no cloud store is configured.
type SQLiteMirror struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewSQLiteMirror constructs a mirror over the provided database handle.
func NewSQLiteMirror(db *gorm.DB, clock func() time.Time) *SQLiteMirror {
	if clock == nil {
		clock = time.Now
	}
	return &SQLiteMirror{db: db, clock: clock}
}

// SQLiteMirrorDial returns a DialFunc that always connects to the mirror.
func SQLiteMirrorDial(mirror *SQLiteMirror) DialFunc {
	return func(context.Context) (Connection, func() error) {
		if mirror == nil || mirror.db == nil {
			return Unavailable("sqlite mirror database is not configured"), nil
		}
		return Connected(mirror), nil
	}
}

// Set creates or fully replaces the document.
func (m *SQLiteMirror) Set(ctx context.Context, collection, key string, document any) error {
	if key == "" {
		return ErrDocumentKeyRequired
	}
	body, err := json.Marshal(document)
	if err != nil {
		return err
	}
	row := MirroredDocument{
		Collection:       collection,
		DocumentKey:      key,
		BodyJSON:         string(body),
		WrittenAtSeconds: m.clock().UTC().Unix(),
	}
	return m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "document_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body_json", "written_at_s"}),
		}).
		Create(&row).Error
}

// Delete removes the document if present.
func (m *SQLiteMirror) Delete(ctx context.Context, collection, key string) error {
	if key == "" {
		return ErrDocumentKeyRequired
	}
	return m.db.WithContext(ctx).
		Where("collection = ? AND document_key = ?", collection, key).
		Delete(&MirroredDocument{}).Error
}

// Get returns the stored JSON body and whether the document exists.
func (m *SQLiteMirror) Get(ctx context.Context, collection, key string) (string, bool, error) {
	var row MirroredDocument
	err := m.db.WithContext(ctx).
		Where("collection = ? AND document_key = ?", collection, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.BodyJSON, true, nil
}
