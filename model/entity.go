package model

import (
	"strings"
	"time"
	"unicode"
)

// EntityLabel is a graph node label for an extracted entity
type EntityLabel string

const (
	EntityLabelPerson           EntityLabel = "Person"
	EntityLabelOrganization     EntityLabel = "Organization"
	EntityLabelLaw              EntityLabel = "Law"
	EntityLabelFinancialConcept EntityLabel = "FinancialConcept"
	EntityLabelLocation         EntityLabel = "Location"
	EntityLabelDefault          EntityLabel = "Entity"
)

// allowedEntityLabels is the closed set of labels usable as graph node labels
var allowedEntityLabels = map[EntityLabel]bool{
	EntityLabelPerson:           true,
	EntityLabelOrganization:     true,
	EntityLabelLaw:              true,
	EntityLabelFinancialConcept: true,
	EntityLabelLocation:         true,
	EntityLabelDefault:          true,
}

// labelAliases maps common model output variants to canonical labels
var labelAliases = map[string]EntityLabel{
	"person":           EntityLabelPerson,
	"per":              EntityLabelPerson,
	"organization":     EntityLabelOrganization,
	"organisation":     EntityLabelOrganization,
	"org":              EntityLabelOrganization,
	"company":          EntityLabelOrganization,
	"law":              EntityLabelLaw,
	"article":          EntityLabelLaw,
	"regulation":       EntityLabelLaw,
	"financialconcept": EntityLabelFinancialConcept,
	"asset":            EntityLabelFinancialConcept,
	"liability":        EntityLabelFinancialConcept,
	"location":         EntityLabelLocation,
	"loc":              EntityLabelLocation,
}

// Entity represents a named concept extracted from a passage.
// Entities are keyed by name and shared across chunks and documents.
type Entity struct {
	Name      string      `json:"name"`
	Label     EntityLabel `json:"label"`
	CreatedAt time.Time   `json:"created_at"`
}

// ExtractedEntity is a raw entity mention as returned by the extraction model
type ExtractedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SanitizeEntityLabel maps an arbitrary extracted type string onto the fixed
// label set. Non-alphanumeric characters are stripped first; anything that is
// empty or unrecognized after sanitization maps to the default label.
func SanitizeEntityLabel(raw string) EntityLabel {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if clean == "" {
		return EntityLabelDefault
	}

	if label, ok := labelAliases[strings.ToLower(clean)]; ok {
		return label
	}
	if allowedEntityLabels[EntityLabel(clean)] {
		return EntityLabel(clean)
	}

	return EntityLabelDefault
}
