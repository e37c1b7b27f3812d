package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/activitysync"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type recordPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type savedRequestPayload struct {
	Automated bool              `json:"automated"`
	Record    recordPayload     `json:"record"`
	Fields    map[string]string `json:"fields"`
}

type savedResponsePayload struct {
	RecordID    string                         `json:"record_id"`
	ExternalKey string                         `json:"external_key,omitempty"`
	Synced      bool                           `json:"synced"`
	SkipReason  string                         `json:"skip_reason,omitempty"`
	Failure     string                         `json:"failure,omitempty"`
	Document    *activitysync.ActivityDocument `json:"document,omitempty"`
}

type deletedResponsePayload struct {
	RecordID    string `json:"record_id"`
	ExternalKey string `json:"external_key,omitempty"`
	Deleted     bool   `json:"deleted"`
	SkipReason  string `json:"skip_reason,omitempty"`
	Failure     string `json:"failure,omitempty"`
}

// handleRecordSaved stores the host snapshot, then runs the save trigger.
// Sync failures are reported in the body; the status stays 200 so the editor is never blocked.
func (h *httpHandler) handleRecordSaved(c *gin.Context) {
	recordID, ok := h.recordIDParam(c)
	if !ok {
		return
	}
	h.logger.Debug("record saved event received",
		zap.String("record_id", recordID.String()),
		zap.String("principal", c.GetString(principalContextKey)))

	var request savedRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	snapshot := records.Snapshot{
		Type:   request.Record.Type,
		Title:  request.Record.Title,
		Slug:   request.Record.Slug,
		Body:   request.Record.Content,
		Status: request.Record.Status,
	}
	if err := h.records.SaveRecord(c.Request.Context(), recordID, snapshot); err != nil {
		if errors.Is(err, records.ErrUnknownRecordType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_type"})
			return
		}
		h.logger.Error("failed to save record", zap.String("record_id", recordID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record_save_failed"})
		return
	}

	outcome := h.synchronizer.OnRecordSaved(c.Request.Context(), activitysync.SaveEvent{
		RecordID:  recordID,
		Record:    snapshot,
		Fields:    request.Fields,
		Automated: request.Automated,
	})

	c.JSON(http.StatusOK, savedResponsePayload{
		RecordID:    recordID.String(),
		ExternalKey: outcome.ExternalKey,
		Synced:      outcome.Synced,
		SkipReason:  string(outcome.SkipReason),
		Failure:     outcome.Failure,
		Document:    outcome.Document,
	})
}

// handleRecordDeleted runs the delete trigger while the record is still readable, then removes it.
func (h *httpHandler) handleRecordDeleted(c *gin.Context) {
	recordID, ok := h.recordIDParam(c)
	if !ok {
		return
	}
	h.logger.Debug("record deleted event received",
		zap.String("record_id", recordID.String()),
		zap.String("principal", c.GetString(principalContextKey)))

	outcome := h.synchronizer.OnRecordDeleted(c.Request.Context(), recordID)

	if err := h.records.DeleteRecord(c.Request.Context(), recordID); err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record_not_found"})
			return
		}
		h.logger.Error("failed to delete record", zap.String("record_id", recordID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record_delete_failed"})
		return
	}

	c.JSON(http.StatusOK, deletedResponsePayload{
		RecordID:    recordID.String(),
		ExternalKey: outcome.ExternalKey,
		Deleted:     outcome.Deleted,
		SkipReason:  string(outcome.SkipReason),
		Failure:     outcome.Failure,
	})
}

func (h *httpHandler) recordIDParam(c *gin.Context) (records.RecordID, bool) {
	recordID, err := records.NewRecordID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_id"})
		return 0, false
	}
	return recordID, true
}
