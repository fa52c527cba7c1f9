package contact

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// FromRaw plucks contact fields out of a decoded provider JSON object.
// It is total: nil maps, missing keys, and wrongly typed values all
// yield a well-formed (possibly empty) record. Legacy singular keys
// (email, phoneNumber) and snake_case aliases are accepted alongside
// the canonical array form.
func FromRaw(m map[string]any) Record {
	r := Empty()
	if m == nil {
		return r
	}

	r.FirstName = rawString(m, "firstName", "first_name")
	r.LastName = rawString(m, "lastName", "last_name")
	r.Company = rawString(m, "company", "organization")
	r.Position = rawString(m, "position", "title")
	r.Website = rawString(m, "website", "url")
	r.Address = rawString(m, "address")
	r.City = rawString(m, "city")
	r.Zipcode = rawString(m, "zipcode", "zip_code", "postalCode")
	r.Country = rawString(m, "country")
	r.Notes = rawString(m, "notes")

	r.Emails = rawStrings(m, "emails")
	if e := rawString(m, "email"); e != "" {
		r.Emails = append(r.Emails, e)
	}
	r.PhoneNumbers = rawStrings(m, "phoneNumbers", "phone_numbers")
	if p := rawString(m, "phoneNumber", "phone_number", "phone"); p != "" {
		r.PhoneNumbers = append(r.PhoneNumbers, p)
	}

	return r
}

// Normalize cleans and canonicalizes every field of a record. It is a
// pure function and idempotent: Normalize(Normalize(r)) == Normalize(r).
func Normalize(r Record) Record {
	out := Empty()

	out.FirstName = strings.TrimSpace(r.FirstName)
	out.LastName = strings.TrimSpace(r.LastName)
	out.Company = strings.TrimSpace(r.Company)
	out.Position = strings.TrimSpace(r.Position)
	out.Address = strings.TrimSpace(r.Address)
	out.City = strings.TrimSpace(r.City)
	out.Zipcode = strings.TrimSpace(r.Zipcode)
	out.Country = strings.TrimSpace(r.Country)
	out.Notes = strings.TrimSpace(r.Notes)
	out.Website = NormalizeWebsite(r.Website)

	seen := map[string]bool{}
	for _, e := range r.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if !emailRe.MatchString(e) {
			// Invalid addresses are dropped, never an error.
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out.Emails = append(out.Emails, e)
	}

	seenPhone := map[string]bool{}
	for _, p := range r.PhoneNumbers {
		p = NormalizePhone(p)
		if p == "" || seenPhone[p] {
			continue
		}
		seenPhone[p] = true
		out.PhoneNumbers = append(out.PhoneNumbers, p)
	}

	return out
}

// NormalizePhone strips everything but digits from a phone number,
// collapsing to a single leading + when the input carried one.
func NormalizePhone(s string) string {
	hasPlus := strings.Contains(s, "+")
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if hasPlus {
		return "+" + digits
	}
	return digits
}

// NormalizeWebsite trims a URL and prepends https:// when no scheme
// is present, so stored websites always carry an explicit scheme.
func NormalizeWebsite(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		return "https://" + s
	}
	return s
}

func rawString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func rawStrings(m map[string]any, keys ...string) []string {
	out := []string{}
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, s)
				}
			}
		case string:
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
