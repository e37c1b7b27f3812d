package records

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	queryRecordID     = "record_id = ?"
	queryRecordMeta   = "record_id = ? AND meta_key = ?"
	queryAttachmentID = "attachment_id = ?"
	statusDraft       = "draft"
)

var errMissingDatabase = errors.New("records: database handle is required")

// StoreConfig describes the dependencies of the record store.
type StoreConfig struct {
	Database *gorm.DB
}

// Store reads and writes host records, their metadata, terms, and attachments.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store backed by the provided GORM handle.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	return &Store{db: cfg.Database}, nil
}

// SaveRecord creates or replaces the core fields of a record.
func (s *Store) SaveRecord(ctx context.Context, id RecordID, snapshot Snapshot) error {
	if _, ok := LookupType(snapshot.Type); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRecordType, snapshot.Type)
	}
	status := strings.TrimSpace(snapshot.Status)
	if status == "" {
		status = statusDraft
	}
	record := Record{
		RecordID: id.Uint64(),
		Type:     snapshot.Type,
		Title:    snapshot.Title,
		Slug:     snapshot.Slug,
		Body:     snapshot.Body,
		Status:   status,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"record_type", "title", "slug", "body", "status"}),
		}).
		Create(&record).Error
}

// Record returns the stored snapshot for the identifier.
func (s *Store) Record(ctx context.Context, id RecordID) (Snapshot, error) {
	record, err := s.loadRecord(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Type:   record.Type,
		Title:  record.Title,
		Slug:   record.Slug,
		Body:   record.Body,
		Status: record.Status,
	}, nil
}

// RecordType returns the type of the record.
func (s *Store) RecordType(ctx context.Context, id RecordID) (string, error) {
	record, err := s.loadRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return record.Type, nil
}

// Title returns the display title of the record.
func (s *Store) Title(ctx context.Context, id RecordID) (string, error) {
	record, err := s.loadRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return record.Title, nil
}

// Meta returns a metadata value, or an empty string when the key was never written.
func (s *Store) Meta(ctx context.Context, id RecordID, key string) (string, error) {
	var metas []RecordMeta
	result := s.db.WithContext(ctx).Where(queryRecordMeta, id.Uint64(), key).Limit(1).Find(&metas)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", nil
	}
	return metas[0].Value, nil
}

// UpdateMeta writes a metadata value, replacing any previous value for the key.
func (s *Store) UpdateMeta(ctx context.Context, id RecordID, key, value string) error {
	meta := RecordMeta{RecordID: id.Uint64(), MetaKey: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}, {Name: "meta_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
		}).
		Create(&meta).Error
}

// Terms returns the record's terms in the taxonomy ordered by name.
func (s *Store) Terms(ctx context.Context, id RecordID, taxonomy string) ([]Term, error) {
	if _, ok := LookupTaxonomy(taxonomy); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaxonomy, taxonomy)
	}
	var terms []Term
	err := s.db.WithContext(ctx).
		Joins("JOIN term_assignments ON term_assignments.term_id = terms.term_id").
		Where("term_assignments.record_id = ? AND terms.taxonomy = ?", id.Uint64(), taxonomy).
		Order("terms.name ASC").
		Find(&terms).Error
	if err != nil {
		return nil, err
	}
	return terms, nil
}

// AssignTerm attaches a term, creating it when the taxonomy has no term with that name yet.
func (s *Store) AssignTerm(ctx context.Context, id RecordID, taxonomy, name string) (Term, error) {
	definition, ok := LookupTaxonomy(taxonomy)
	if !ok {
		return Term{}, fmt.Errorf("%w: %q", ErrUnknownTaxonomy, taxonomy)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Term{}, fmt.Errorf("records: term name is required")
	}

	var term Term
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record Record
		if err := tx.Where(queryRecordID, id.Uint64()).Take(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
			}
			return err
		}
		if !definition.AppliesTo(record.Type) {
			return fmt.Errorf("%w: %q does not apply to %q", ErrUnknownTaxonomy, taxonomy, record.Type)
		}
		if err := tx.
			Where(Term{Taxonomy: taxonomy, Slug: slugify(trimmed)}).
			Attrs(Term{Name: trimmed}).
			FirstOrCreate(&term).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&TermAssignment{RecordID: id.Uint64(), TermID: term.TermID}).Error
	})
	if txErr != nil {
		return Term{}, txErr
	}
	return term, nil
}

// SaveAttachment creates or replaces an attachment entry.
func (s *Store) SaveAttachment(ctx context.Context, attachment Attachment) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attachment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"file_path", "public_url"}),
		}).
		Create(&attachment).Error
}

// AttachmentFile is the public view of an attachment.
type AttachmentFile struct {
	Name string
	URL  string
}

// Attachment resolves an attachment identifier to its file name and public URL.
func (s *Store) Attachment(ctx context.Context, id RecordID) (AttachmentFile, error) {
	var attachment Attachment
	err := s.db.WithContext(ctx).Where(queryAttachmentID, id.Uint64()).Take(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AttachmentFile{}, fmt.Errorf("%w: %s", ErrAttachmentNotFound, id)
	}
	if err != nil {
		return AttachmentFile{}, err
	}
	return AttachmentFile{Name: path.Base(attachment.FilePath), URL: attachment.PublicURL}, nil
}

// DeleteRecord removes a record together with its metadata and term assignments.
func (s *Store) DeleteRecord(ctx context.Context, id RecordID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(queryRecordID, id.Uint64()).Delete(&RecordMeta{}).Error; err != nil {
			return err
		}
		if err := tx.Where(queryRecordID, id.Uint64()).Delete(&TermAssignment{}).Error; err != nil {
			return err
		}
		result := tx.Where(queryRecordID, id.Uint64()).Delete(&Record{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil
	})
}

func (s *Store) loadRecord(ctx context.Context, id RecordID) (Record, error) {
	var record Record
	err := s.db.WithContext(ctx).Where(queryRecordID, id.Uint64()).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return name
	}
	return strings.Join(fields, "-")
}
