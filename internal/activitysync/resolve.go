package activitysync

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"go.uber.org/zap"
)

// project reads the stored metadata and builds the document for the snapshot.
func (s *Synchronizer) project(ctx context.Context, logger *zap.Logger, id records.RecordID, snapshot records.Snapshot) (ActivityDocument, error) {
	date, err := s.records.Meta(ctx, id, MetaActivityDate)
	if err != nil {
		return ActivityDocument{}, err
	}
	timeOfDay, err := s.records.Meta(ctx, id, MetaActivityTime)
	if err != nil {
		return ActivityDocument{}, err
	}
	guide, err := s.resolveGuide(ctx, logger, id)
	if err != nil {
		return ActivityDocument{}, err
	}
	documents, err := s.resolveDocuments(ctx, logger, id)
	if err != nil {
		return ActivityDocument{}, err
	}

	return BuildDocument(ProjectionInput{
		Snapshot:  snapshot,
		Date:      date,
		Time:      timeOfDay,
		Company:   s.resolveCompany(ctx, logger, id),
		Guide:     guide,
		Documents: documents,
	}), nil
}

func (s *Synchronizer) resolveGuide(ctx context.Context, logger *zap.Logger, id records.RecordID) (*GuideSummary, error) {
	rawGuideID, err := s.records.Meta(ctx, id, MetaAssignedGuideID)
	if err != nil {
		return nil, err
	}
	if isBlankReference(rawGuideID) {
		return nil, nil
	}
	title, err := s.records.Meta(ctx, id, MetaGuideTitle)
	if err != nil {
		return nil, err
	}

	summary := &GuideSummary{Title: title}
	guideID, err := records.NewRecordID(rawGuideID)
	if err != nil {
		logger.Warn("assigned guide id is invalid", zap.String("guide_id", rawGuideID))
		return summary, nil
	}
	name, err := s.records.Title(ctx, guideID)
	if errors.Is(err, records.ErrRecordNotFound) {
		logger.Warn("assigned guide not found", zap.String("guide_id", guideID.String()))
		return summary, nil
	}
	if err != nil {
		return nil, err
	}
	summary.Name = name
	return summary, nil
}

// resolveCompany returns the first company term by name; lookup failures degrade to an empty name.
func (s *Synchronizer) resolveCompany(ctx context.Context, logger *zap.Logger, id records.RecordID) string {
	terms, err := s.records.Terms(ctx, id, records.TaxonomyCompany)
	if err != nil {
		logger.Warn("company lookup failed", zap.Error(err))
		return ""
	}
	if len(terms) == 0 {
		return ""
	}
	return terms[0].Name
}

func (s *Synchronizer) resolveDocuments(ctx context.Context, logger *zap.Logger, id records.RecordID) ([]DocumentDescriptor, error) {
	raw, err := s.records.Meta(ctx, id, MetaDocumentIDs)
	if err != nil {
		return nil, err
	}
	ids := ParseDocumentIDs(raw)
	documents := make([]DocumentDescriptor, 0, len(ids))
	for _, rawAttachmentID := range ids {
		attachmentID, err := records.NewRecordID(rawAttachmentID)
		if err != nil {
			logger.Warn("attachment id is invalid", zap.String("attachment_id", rawAttachmentID))
			documents = append(documents, DocumentDescriptor{})
			continue
		}
		file, err := s.records.Attachment(ctx, attachmentID)
		if errors.Is(err, records.ErrAttachmentNotFound) {
			logger.Warn("attachment not found", zap.String("attachment_id", attachmentID.String()))
			documents = append(documents, DocumentDescriptor{})
			continue
		}
		if err != nil {
			return nil, err
		}
		documents = append(documents, DocumentDescriptor{Name: file.Name, URL: file.URL})
	}
	return documents, nil
}
