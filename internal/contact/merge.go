package contact

import "strings"

// Merge combines two normalized records into one. Scalars are
// left-biased: a's value wins when non-empty. Array fields are the
// union of both inputs in first-seen order, deduplicated with the same
// equality the normalizer uses (case-insensitive for emails, digit
// normalization for phones). Merge is associative and merging with an
// empty record is the identity, so card front/back or several photos
// fold into one record without losing any populated field.
func Merge(a, b Record) Record {
	out := a.Clone()

	out.FirstName = pick(a.FirstName, b.FirstName)
	out.LastName = pick(a.LastName, b.LastName)
	out.Company = pick(a.Company, b.Company)
	out.Position = pick(a.Position, b.Position)
	out.Website = pick(a.Website, b.Website)
	out.Address = pick(a.Address, b.Address)
	out.City = pick(a.City, b.City)
	out.Zipcode = pick(a.Zipcode, b.Zipcode)
	out.Country = pick(a.Country, b.Country)
	out.Notes = pick(a.Notes, b.Notes)

	seen := map[string]bool{}
	for _, e := range out.Emails {
		seen[strings.ToLower(e)] = true
	}
	for _, e := range b.Emails {
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Emails = append(out.Emails, e)
	}

	seenPhone := map[string]bool{}
	for _, p := range out.PhoneNumbers {
		seenPhone[NormalizePhone(p)] = true
	}
	for _, p := range b.PhoneNumbers {
		key := NormalizePhone(p)
		if seenPhone[key] {
			continue
		}
		seenPhone[key] = true
		out.PhoneNumbers = append(out.PhoneNumbers, p)
	}

	return out
}

// MergeAll folds records pairwise, left to right.
func MergeAll(records ...Record) Record {
	out := Empty()
	for _, r := range records {
		out = Merge(out, r)
	}
	return out
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
