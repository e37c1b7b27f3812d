package activitysync

import (
	"strings"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
)

// GuideSummary is the flattened view of the guide assigned to an activity.
type GuideSummary struct {
	Name  string `firestore:"name" json:"name"`
	Title string `firestore:"title" json:"title"`
}

// DocumentDescriptor points at an attached file.
type DocumentDescriptor struct {
	Name string `firestore:"name" json:"name"`
	URL  string `firestore:"url" json:"url"`
}

// ActivityDocument is the projection of an activity written to the remote store.
type ActivityDocument struct {
	Name        string               `firestore:"name" json:"name"`
	ID          string               `firestore:"id" json:"id"`
	Description string               `firestore:"description" json:"description"`
	Date        string               `firestore:"date" json:"date"`
	Company     string               `firestore:"company" json:"company"`
	Guide       *GuideSummary        `firestore:"guide" json:"guide"`
	Documents   []DocumentDescriptor `firestore:"documents" json:"documents"`
}

// ProjectionInput collects the resolved values a document is built from.
type ProjectionInput struct {
	Snapshot  records.Snapshot
	Date      string
	Time      string
	Company   string
	Guide     *GuideSummary
	Documents []DocumentDescriptor
}

// BuildDocument assembles the external document. Equal inputs yield equal documents.
func BuildDocument(input ProjectionInput) ActivityDocument {
	documents := make([]DocumentDescriptor, 0, len(input.Documents))
	documents = append(documents, input.Documents...)

	var guide *GuideSummary
	if input.Guide != nil {
		copied := *input.Guide
		guide = &copied
	}

	return ActivityDocument{
		Name:        input.Snapshot.Title,
		ID:          input.Snapshot.Slug,
		Description: input.Snapshot.Body,
		Date:        CombineDateTime(input.Date, input.Time),
		Company:     input.Company,
		Guide:       guide,
		Documents:   documents,
	}
}

// CombineDateTime renders "<date> at <time>", or the date alone when no time is set.
func CombineDateTime(date, timeOfDay string) string {
	if timeOfDay == "" {
		return date
	}
	return date + " at " + timeOfDay
}

// ParseDocumentIDs splits a comma separated attachment list, skipping blank entries.
func ParseDocumentIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if isBlankReference(trimmed) {
			continue
		}
		ids = append(ids, trimmed)
	}
	return ids
}

// ExternalKey derives the stable remote key for an activity.
func ExternalKey(id records.RecordID) string {
	return externalKeyPrefix + id.String()
}

// isBlankReference treats "0" like an empty reference, matching how the admin form clears selections.
func isBlankReference(value string) bool {
	return value == "" || value == "0"
}
