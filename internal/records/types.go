package records

const (
	// TypeActivity identifies tour activity records.
	TypeActivity = "activity"
	// TypeGuide identifies tour guide profile records.
	TypeGuide = "guide"
	// TaxonomyCompany groups activities and guides by owning organization.
	TaxonomyCompany = "company"
)

// TypeDefinition describes a registered record type.
type TypeDefinition struct {
	Name         string
	Label        string
	Description  string
	Supports     []string
	Public       bool
	Hierarchical bool
}

// TaxonomyDefinition describes a registered taxonomy.
type TaxonomyDefinition struct {
	Name         string
	Label        string
	RecordTypes  []string
	Hierarchical bool
}

var recordTypes = map[string]TypeDefinition{
	TypeActivity: {
		Name:        TypeActivity,
		Label:       "Activities",
		Description: "Tour activities for the Aura app.",
		Supports:    []string{"title", "editor", "thumbnail"},
		Public:      true,
	},
	TypeGuide: {
		Name:        TypeGuide,
		Label:       "Guides",
		Description: "Tour guide profiles.",
		Supports:    []string{"title", "thumbnail"},
		Public:      false,
	},
}

var taxonomies = map[string]TaxonomyDefinition{
	TaxonomyCompany: {
		Name:         TaxonomyCompany,
		Label:        "Companies",
		RecordTypes:  []string{TypeActivity, TypeGuide},
		Hierarchical: true,
	},
}

// LookupType returns the definition of a registered record type.
func LookupType(name string) (TypeDefinition, bool) {
	definition, ok := recordTypes[name]
	return definition, ok
}

// LookupTaxonomy returns the definition of a registered taxonomy.
func LookupTaxonomy(name string) (TaxonomyDefinition, bool) {
	definition, ok := taxonomies[name]
	return definition, ok
}

// AppliesTo reports whether the taxonomy may be assigned to the record type.
func (d TaxonomyDefinition) AppliesTo(recordType string) bool {
	for _, candidate := range d.RecordTypes {
		if candidate == recordType {
			return true
		}
	}
	return false
}
