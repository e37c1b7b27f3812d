package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRecordID indicates that a record identifier is empty or not a positive integer.
	ErrInvalidRecordID = errors.New("records: invalid record id")
	// ErrRecordNotFound indicates that no record exists for the identifier.
	ErrRecordNotFound = errors.New("records: record not found")
	// ErrAttachmentNotFound indicates that no attachment exists for the identifier.
	ErrAttachmentNotFound = errors.New("records: attachment not found")
	// ErrUnknownRecordType indicates that the record type was never registered.
	ErrUnknownRecordType = errors.New("records: unknown record type")
	// ErrUnknownTaxonomy indicates that the taxonomy was never registered or does not apply to the record type.
	ErrUnknownTaxonomy = errors.New("records: unknown taxonomy")
)

// RecordID represents a validated host record identifier.
type RecordID uint64

// NewRecordID parses raw input into a RecordID.
func NewRecordID(rawInput string) (RecordID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidRecordID)
	}
	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecordID, trimmed)
	}
	if value == 0 {
		return 0, fmt.Errorf("%w: zero", ErrInvalidRecordID)
	}
	return RecordID(value), nil
}

// String returns the decimal form of the identifier.
func (id RecordID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Uint64 exposes the raw identifier.
func (id RecordID) Uint64() uint64 {
	return uint64(id)
}

// Record models a typed content item in the host store.
type Record struct {
	RecordID uint64 `gorm:"column:record_id;primaryKey;autoIncrement:false"`
	Type     string `gorm:"column:record_type;size:20;not null;index:idx_records_type"`
	Title    string `gorm:"column:title;type:text;not null;default:''"`
	Slug     string `gorm:"column:slug;size:200;not null;default:''"`
	Body     string `gorm:"column:body;type:text;not null;default:''"`
	Status   string `gorm:"column:status;size:20;not null;default:'draft'"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "records"
}

// RecordMeta stores one key/value metadata entry attached to a record.
type RecordMeta struct {
	RecordID uint64 `gorm:"column:record_id;primaryKey;autoIncrement:false"`
	MetaKey  string `gorm:"column:meta_key;primaryKey;size:190;not null"`
	Value    string `gorm:"column:meta_value;type:text;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (RecordMeta) TableName() string {
	return "record_meta"
}

// Term is a category-like label inside a taxonomy.
type Term struct {
	TermID   uint64 `gorm:"column:term_id;primaryKey;autoIncrement"`
	Taxonomy string `gorm:"column:taxonomy;size:32;not null;uniqueIndex:idx_terms_taxonomy_slug,priority:1"`
	Name     string `gorm:"column:name;size:200;not null"`
	Slug     string `gorm:"column:slug;size:200;not null;uniqueIndex:idx_terms_taxonomy_slug,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Term) TableName() string {
	return "terms"
}

// TermAssignment links a record to a term.
type TermAssignment struct {
	RecordID uint64 `gorm:"column:record_id;primaryKey;autoIncrement:false"`
	TermID   uint64 `gorm:"column:term_id;primaryKey;autoIncrement:false"`
}

// TableName provides the explicit table binding for GORM.
func (TermAssignment) TableName() string {
	return "term_assignments"
}

// Attachment describes an uploaded media file.
type Attachment struct {
	AttachmentID uint64 `gorm:"column:attachment_id;primaryKey;autoIncrement:false"`
	FilePath     string `gorm:"column:file_path;type:text;not null"`
	PublicURL    string `gorm:"column:public_url;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Attachment) TableName() string {
	return "attachments"
}

// Snapshot is the host's view of a record at the moment an event fires.
type Snapshot struct {
	Type   string
	Title  string
	Slug   string
	Body   string
	Status string
}

// Models lists every schema model owned by this package.
func Models() []interface{} {
	return []interface{}{&Record{}, &RecordMeta{}, &Term{}, &TermAssignment{}, &Attachment{}}
}
