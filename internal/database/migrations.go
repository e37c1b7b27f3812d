package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationPurgeOrphanRecordMeta = "2026-10-01_purge_orphan_record_meta"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPurgeOrphanRecordMeta, apply: purgeOrphanRecordMeta},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// purgeOrphanRecordMeta drops metadata left behind by records deleted outside the store.
func purgeOrphanRecordMeta(db *gorm.DB) error {
	return db.
		Where("record_id NOT IN (?)", db.Model(&records.Record{}).Select("record_id")).
		Delete(&records.RecordMeta{}).Error
}
