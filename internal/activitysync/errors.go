package activitysync

import (
	"errors"
	"fmt"
)

var (
	errMissingRecords   = errors.New("record store is required")
	errMissingConnector = errors.New("remote connector is required")
)

// SyncError carries an operation.reason code alongside the underlying cause.
type SyncError struct {
	code string
	err  error
}

func (e *SyncError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *SyncError) Unwrap() error {
	return e.err
}

// Code returns the operation.reason code.
func (e *SyncError) Code() string {
	return e.code
}

const (
	opSynchronizerNew = "activitysync.synchronizer.new"
	opRecordSaved     = "activitysync.record_saved"
	opRecordDeleted   = "activitysync.record_deleted"

	reasonMissingRecords     = "missing_records"
	reasonMissingConnector   = "missing_connector"
	reasonKeyLookupFailed    = "key_lookup_failed"
	reasonKeyAssignFailed    = "key_assign_failed"
	reasonFieldUpdateFailed  = "field_update_failed"
	reasonProjectionFailed   = "projection_failed"
	reasonUpsertFailed       = "upsert_failed"
	reasonTypeLookupFailed   = "type_lookup_failed"
	reasonRemoteDeleteFailed = "remote_delete_failed"
)

func newSyncError(operation, reason string, cause error) *SyncError {
	return &SyncError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}
