package activitysync

const (
	// MetaActivityCode holds the external key of an activity.
	MetaActivityCode = "_aura_activity_code"
	// MetaActivityDate holds the scheduled date.
	MetaActivityDate = "_aura_activity_date"
	// MetaActivityTime holds the optional scheduled time.
	MetaActivityTime = "_aura_activity_time"
	// MetaAssignedGuideID references the assigned guide record.
	MetaAssignedGuideID = "_aura_assigned_guide_id"
	// MetaGuideTitle overrides the guide's title for this activity.
	MetaGuideTitle = "_aura_guide_title"
	// MetaDocumentIDs is a comma separated list of attachment ids.
	MetaDocumentIDs = "_aura_activity_document_ids"
)

// Admin form field names submitted on save.
const (
	FieldActivityDate    = "aura_activity_date"
	FieldActivityTime    = "aura_activity_time"
	FieldAssignedGuideID = "aura_assigned_guide_id"
	FieldGuideTitle      = "aura_guide_title"
	FieldDocumentIDs     = "aura_activity_document_ids"
)

const externalKeyPrefix = "AURA-"

type formField struct {
	name    string
	metaKey string
}

// submittedFields is ordered so that writes happen in a stable sequence.
var submittedFields = []formField{
	{name: FieldActivityDate, metaKey: MetaActivityDate},
	{name: FieldActivityTime, metaKey: MetaActivityTime},
	{name: FieldAssignedGuideID, metaKey: MetaAssignedGuideID},
	{name: FieldGuideTitle, metaKey: MetaGuideTitle},
	{name: FieldDocumentIDs, metaKey: MetaDocumentIDs},
}
