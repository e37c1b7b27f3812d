package activitysync

import (
	"testing"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
)

func TestCombineDateTime(t *testing.T) {
	if got := CombineDateTime("2024-07-01", "9:00 AM"); got != "2024-07-01 at 9:00 AM" {
		t.Fatalf("unexpected combined value %q", got)
	}
	if got := CombineDateTime("2024-07-01", ""); got != "2024-07-01" {
		t.Fatalf("expected date alone, got %q", got)
	}
}

func TestParseDocumentIDs(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "blank-middle", raw: "12,,7", expected: []string{"12", "7"}},
		{name: "whitespace", raw: " 3 , ,4 ,", expected: []string{"3", "4"}},
		{name: "zero", raw: "0,5", expected: []string{"5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDocumentIDs(tt.raw)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}

func TestBuildDocumentCopiesInputs(t *testing.T) {
	guide := &GuideSummary{Name: "Ana", Title: "Guide"}
	input := ProjectionInput{
		Snapshot:  records.Snapshot{Title: "Kayak", Slug: "kayak", Body: "Paddle"},
		Date:      "2024-07-01",
		Company:   "Reef",
		Guide:     guide,
		Documents: []DocumentDescriptor{{Name: "a.pdf", URL: "https://x/a.pdf"}},
	}

	document := BuildDocument(input)
	guide.Name = "changed"
	input.Documents[0].Name = "changed"

	if document.Guide.Name != "Ana" {
		t.Fatalf("document guide must not alias input")
	}
	if document.Documents[0].Name != "a.pdf" {
		t.Fatalf("document list must not alias input")
	}
	if document.Name != "Kayak" || document.ID != "kayak" || document.Description != "Paddle" || document.Date != "2024-07-01" {
		t.Fatalf("unexpected document %+v", document)
	}
	if BuildDocument(ProjectionInput{}).Documents == nil {
		t.Fatalf("documents must always be a list")
	}
}

func TestExternalKey(t *testing.T) {
	id, err := records.NewRecordID("128")
	if err != nil {
		t.Fatalf("unexpected id error: %v", err)
	}
	if key := ExternalKey(id); key != "AURA-128" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSanitizeText(t *testing.T) {
	tests := map[string]string{
		"9:00 AM":                        "9:00 AM",
		"  spaced\n\tout  ":              "spaced out",
		"<em>Lead</em> Guide":            "Lead Guide",
		"Rock &amp; Roll":                "Rock & Roll",
		"Tom & Jerry":                    "Tom & Jerry",
		"caf\xe9":                        "caf",
		"100%20off":                      "100off",
		"%%2020off":                      "off",
		"5 > 3 guests":                   "5 > 3 guests",
		"ages 4 < 12":                    "ages 4 < 12",
		"&lt;script&gt;x&lt;/script&gt;": "x",
	}
	for input, expected := range tests {
		if got := SanitizeText(input); got != expected {
			t.Fatalf("SanitizeText(%q) = %q, want %q", input, got, expected)
		}
	}
}
