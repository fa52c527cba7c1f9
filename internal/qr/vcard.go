package qr

import (
	"strings"

	"leadscan/internal/contact"
)

// ParseVCard parses a vCard block field by field into a contact record.
// Property parameters (TEL;TYPE=WORK:...) are tolerated and ignored.
// The result still goes through contact.Normalize.
func ParseVCard(text string) contact.Record {
	rec := contact.Empty()

	var haveN bool
	var fn string

	for _, line := range unfoldLines(text) {
		name, value := splitProperty(line)
		if value == "" {
			continue
		}

		switch name {
		case "N":
			// Family;Given;Additional;Prefix;Suffix
			parts := strings.Split(value, ";")
			if len(parts) > 0 {
				rec.LastName = parts[0]
			}
			if len(parts) > 1 {
				rec.FirstName = parts[1]
			}
			haveN = rec.FirstName != "" || rec.LastName != ""
		case "FN":
			fn = value
		case "ORG":
			// Organization may carry unit components after ';'.
			rec.Company = strings.Split(value, ";")[0]
		case "TITLE":
			rec.Position = value
		case "EMAIL":
			rec.Emails = append(rec.Emails, value)
		case "TEL":
			rec.PhoneNumbers = append(rec.PhoneNumbers, value)
		case "URL":
			rec.Website = value
		case "ADR":
			// PO box;Extended;Street;Locality;Region;Postal code;Country
			parts := strings.Split(value, ";")
			if len(parts) > 2 {
				rec.Address = parts[2]
			}
			if len(parts) > 3 {
				rec.City = parts[3]
			}
			if len(parts) > 5 {
				rec.Zipcode = parts[5]
			}
			if len(parts) > 6 {
				rec.Country = parts[6]
			}
		case "NOTE":
			rec.Notes = value
		}
	}

	// Fall back to the formatted name when no structured N was given.
	if !haveN && fn != "" {
		first, last, _ := strings.Cut(fn, " ")
		rec.FirstName = first
		rec.LastName = last
	}

	return rec
}

// unfoldLines splits a vCard into logical lines, joining folded
// continuation lines (leading space or tab) per RFC 6350.
func unfoldLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	for _, line := range raw {
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(out) > 0 {
			out[len(out)-1] += strings.TrimLeft(line, " \t")
			continue
		}
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// splitProperty splits "NAME;PARAM=X:value" into the bare property
// name (upper-cased, parameters dropped) and its value.
func splitProperty(line string) (string, string) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", ""
	}
	if idx := strings.IndexByte(name, ';'); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value)
}
