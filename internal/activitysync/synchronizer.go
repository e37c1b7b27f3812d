// Package activitysync mirrors activity records into the remote document store on save and delete.
package activitysync

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/remote"
	"go.uber.org/zap"
)

var noOpLogger = zap.NewNop()

// RecordStore is the subset of the host record store the synchronizer reads and writes.
type RecordStore interface {
	RecordType(ctx context.Context, id records.RecordID) (string, error)
	Title(ctx context.Context, id records.RecordID) (string, error)
	Meta(ctx context.Context, id records.RecordID, key string) (string, error)
	UpdateMeta(ctx context.Context, id records.RecordID, key, value string) error
	Terms(ctx context.Context, id records.RecordID, taxonomy string) ([]records.Term, error)
	Attachment(ctx context.Context, id records.RecordID) (records.AttachmentFile, error)
}

// SkipReason explains why a trigger ended without a remote write.
type SkipReason string

const (
	SkipReasonAutomated         SkipReason = "automated_save"
	SkipReasonNotActivity       SkipReason = "not_activity"
	SkipReasonRecordMissing     SkipReason = "record_missing"
	SkipReasonUnkeyed           SkipReason = "unkeyed"
	SkipReasonRemoteUnavailable SkipReason = "remote_unavailable"
)

// SaveEvent is raised by the host after a record has been saved.
type SaveEvent struct {
	RecordID records.RecordID
	Record   records.Snapshot
	// Fields holds the admin form submission; absent names leave their values untouched.
	Fields    map[string]string
	Automated bool
}

// SaveOutcome reports what a save trigger did. Failures are reported, never returned as errors.
type SaveOutcome struct {
	RecordID    records.RecordID
	ExternalKey string
	SkipReason  SkipReason
	Synced      bool
	Document    *ActivityDocument
	Failure     string
}

// Skipped reports whether the trigger ended early without a failure.
func (o SaveOutcome) Skipped() bool {
	return o.SkipReason != ""
}

// DeleteOutcome reports what a delete trigger did.
type DeleteOutcome struct {
	RecordID    records.RecordID
	ExternalKey string
	SkipReason  SkipReason
	Deleted     bool
	Failure     string
}

// Skipped reports whether the trigger ended early without a failure.
func (o DeleteOutcome) Skipped() bool {
	return o.SkipReason != ""
}

// SynchronizerConfig describes the synchronizer's collaborators.
type SynchronizerConfig struct {
	Records    RecordStore
	Connector  remote.Connector
	Logger     *zap.Logger
	IDProvider IDProvider
}

// Synchronizer projects activity records into the remote store.
// Concurrent saves of the same record are not coordinated; the last write wins.
type Synchronizer struct {
	records    RecordStore
	connector  remote.Connector
	logger     *zap.Logger
	idProvider IDProvider
}

// NewSynchronizer validates the configuration and constructs a Synchronizer.
func NewSynchronizer(cfg SynchronizerConfig) (*Synchronizer, error) {
	if cfg.Records == nil {
		return nil, newSyncError(opSynchronizerNew, reasonMissingRecords, errMissingRecords)
	}
	if cfg.Connector == nil {
		return nil, newSyncError(opSynchronizerNew, reasonMissingConnector, errMissingConnector)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = NewUUIDProvider()
	}
	return &Synchronizer{
		records:    cfg.Records,
		connector:  cfg.Connector,
		logger:     logger,
		idProvider: idProvider,
	}, nil
}

// OnRecordSaved assigns the external key, applies submitted fields, and upserts the projection.
func (s *Synchronizer) OnRecordSaved(ctx context.Context, event SaveEvent) SaveOutcome {
	logger := s.triggerLogger(opRecordSaved, event.RecordID)
	outcome := SaveOutcome{RecordID: event.RecordID}

	if event.Automated {
		outcome.SkipReason = s.skip(logger, SkipReasonAutomated)
		return outcome
	}
	if event.Record.Type != records.TypeActivity {
		outcome.SkipReason = s.skip(logger, SkipReasonNotActivity, zap.String("record_type", event.Record.Type))
		return outcome
	}

	key, syncErr := s.ensureExternalKey(ctx, event.RecordID)
	if syncErr != nil {
		outcome.Failure = s.fail(logger, syncErr)
		return outcome
	}
	outcome.ExternalKey = key
	logger = logger.With(zap.String("external_key", key))

	if err := s.applyFields(ctx, event.RecordID, event.Fields); err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordSaved, reasonFieldUpdateFailed, err))
		return outcome
	}

	connection := s.connector.Connect(ctx)
	if !connection.Available() {
		outcome.SkipReason = s.skip(logger, SkipReasonRemoteUnavailable, zap.String("remote_reason", connection.Reason()))
		return outcome
	}

	document, err := s.project(ctx, logger, event.RecordID, event.Record)
	if err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordSaved, reasonProjectionFailed, err))
		return outcome
	}
	outcome.Document = &document

	err = connection.Store().Set(ctx, remote.CollectionActivities, key, document)
	recordRemoteOperation(metricOperationUpsert, err)
	if err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordSaved, reasonUpsertFailed, err))
		return outcome
	}

	outcome.Synced = true
	logger.Info("activity synced")
	return outcome
}

// OnRecordDeleted removes the projection of an activity that is about to be deleted.
// It must run before the host removes the record, while its type and key are still readable.
func (s *Synchronizer) OnRecordDeleted(ctx context.Context, id records.RecordID) DeleteOutcome {
	logger := s.triggerLogger(opRecordDeleted, id)
	outcome := DeleteOutcome{RecordID: id}

	recordType, err := s.records.RecordType(ctx, id)
	if errors.Is(err, records.ErrRecordNotFound) {
		outcome.SkipReason = s.skip(logger, SkipReasonRecordMissing)
		return outcome
	}
	if err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordDeleted, reasonTypeLookupFailed, err))
		return outcome
	}
	if recordType != records.TypeActivity {
		outcome.SkipReason = s.skip(logger, SkipReasonNotActivity, zap.String("record_type", recordType))
		return outcome
	}

	key, err := s.records.Meta(ctx, id, MetaActivityCode)
	if err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordDeleted, reasonKeyLookupFailed, err))
		return outcome
	}
	if key == "" {
		outcome.SkipReason = s.skip(logger, SkipReasonUnkeyed)
		return outcome
	}
	outcome.ExternalKey = key
	logger = logger.With(zap.String("external_key", key))

	connection := s.connector.Connect(ctx)
	if !connection.Available() {
		outcome.SkipReason = s.skip(logger, SkipReasonRemoteUnavailable, zap.String("remote_reason", connection.Reason()))
		return outcome
	}

	err = connection.Store().Delete(ctx, remote.CollectionActivities, key)
	recordRemoteOperation(metricOperationDelete, err)
	if err != nil {
		outcome.Failure = s.fail(logger, newSyncError(opRecordDeleted, reasonRemoteDeleteFailed, err))
		return outcome
	}

	outcome.Deleted = true
	logger.Info("activity projection deleted")
	return outcome
}

// ensureExternalKey returns the stored key, minting AURA-<id> on first use.
// The key is kept even when the later remote write fails.
func (s *Synchronizer) ensureExternalKey(ctx context.Context, id records.RecordID) (string, *SyncError) {
	key, err := s.records.Meta(ctx, id, MetaActivityCode)
	if err != nil {
		return "", newSyncError(opRecordSaved, reasonKeyLookupFailed, err)
	}
	if key != "" {
		return key, nil
	}
	key = ExternalKey(id)
	if err := s.records.UpdateMeta(ctx, id, MetaActivityCode, key); err != nil {
		return "", newSyncError(opRecordSaved, reasonKeyAssignFailed, err)
	}
	return key, nil
}

func (s *Synchronizer) applyFields(ctx context.Context, id records.RecordID, fields map[string]string) error {
	for _, field := range submittedFields {
		value, submitted := fields[field.name]
		if !submitted {
			continue
		}
		if err := s.records.UpdateMeta(ctx, id, field.metaKey, SanitizeText(value)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer) triggerLogger(operation string, id records.RecordID) *zap.Logger {
	triggerID, err := s.idProvider.NewID()
	if err != nil {
		s.logger.Warn("trigger id generation failed", zap.Error(err))
	}
	return s.logger.With(
		zap.String("operation", operation),
		zap.String("record_id", id.String()),
		zap.String("trigger_id", triggerID),
	)
}

func (s *Synchronizer) skip(logger *zap.Logger, reason SkipReason, fields ...zap.Field) SkipReason {
	recordSkip(reason)
	attrs := append([]zap.Field{zap.String("reason", string(reason))}, fields...)
	if reason == SkipReasonRemoteUnavailable {
		logger.Warn("activity sync skipped", attrs...)
		return reason
	}
	logger.Debug("activity sync skipped", attrs...)
	return reason
}

// fail logs the error once and returns its code for the outcome.
func (s *Synchronizer) fail(logger *zap.Logger, syncErr *SyncError) string {
	logger.Error("activity sync error",
		zap.String("code", syncErr.Code()),
		zap.Error(syncErr.Unwrap()),
	)
	return syncErr.Code()
}
