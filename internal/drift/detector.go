package drift

import (
	"sort"
	"strings"

	"leadscan/internal/contact"
	"leadscan/internal/domain"
)

// FieldDiffRow is one field's comparison between a stored record and a
// freshly extracted one. Rows are transient audit output, never persisted.
type FieldDiffRow struct {
	Field          string            `json:"field"`
	StoredValue    string            `json:"storedValue"`
	ExtractedValue string            `json:"extractedValue"`
	Status         domain.DiffStatus `json:"status"`
}

// diffFields fixes the comparison order.
var diffFields = []string{
	"firstName", "lastName", "company", "position",
	"emails", "phoneNumbers",
	"website", "address", "city", "zipcode", "country", "notes",
}

// Diff compares two records field by field, one row per tracked field.
// Array fields are compared as sorted joined strings; all comparisons
// are case-insensitive.
func Diff(stored, extracted contact.Record) []FieldDiffRow {
	rows := make([]FieldDiffRow, 0, len(diffFields))
	for _, field := range diffFields {
		sv := fieldValue(stored, field)
		ev := fieldValue(extracted, field)
		rows = append(rows, FieldDiffRow{
			Field:          field,
			StoredValue:    sv,
			ExtractedValue: ev,
			Status:         status(sv, ev),
		})
	}
	return rows
}

// MissingPhones reports numbers present in a fresh scan but absent
// from storage, using the normalizer's digit equality. The result
// drives an explicit "add missing phone" confirmation; contact edits
// are never applied without an explicit accept.
func MissingPhones(stored, extracted contact.Record) []string {
	have := map[string]bool{}
	for _, p := range stored.PhoneNumbers {
		have[contact.NormalizePhone(p)] = true
	}

	var missing []string
	seen := map[string]bool{}
	for _, p := range extracted.PhoneNumbers {
		key := contact.NormalizePhone(p)
		if key == "" || have[key] || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, p)
	}
	return missing
}

func status(stored, extracted string) domain.DiffStatus {
	switch {
	case stored == "" && extracted == "":
		return domain.DiffBothEmpty
	case stored == "":
		return domain.DiffMissingInStore
	case extracted == "":
		return domain.DiffOnlyInStore
	case strings.EqualFold(stored, extracted):
		return domain.DiffMatch
	default:
		return domain.DiffDifferent
	}
}

func fieldValue(r contact.Record, field string) string {
	switch field {
	case "firstName":
		return r.FirstName
	case "lastName":
		return r.LastName
	case "company":
		return r.Company
	case "position":
		return r.Position
	case "emails":
		return joinSorted(r.Emails)
	case "phoneNumbers":
		return joinSorted(r.PhoneNumbers)
	case "website":
		return r.Website
	case "address":
		return r.Address
	case "city":
		return r.City
	case "zipcode":
		return r.Zipcode
	case "country":
		return r.Country
	case "notes":
		return r.Notes
	}
	return ""
}

func joinSorted(values []string) string {
	sorted := append([]string{}, values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
