package contact

// trackedFieldCount is the fixed confidence denominator. Zipcode and
// notes are excluded: zipcode is an address component and notes is
// free-form, neither signals extraction quality on its own.
const trackedFieldCount = 10

// Confidence derives a 0-1 completeness score from the populated-field
// count of a record: populated tracked fields over a fixed denominator.
func Confidence(r Record) float64 {
	populated := 0
	for _, set := range []bool{
		r.FirstName != "",
		r.LastName != "",
		r.Company != "",
		r.Position != "",
		len(r.Emails) > 0,
		len(r.PhoneNumbers) > 0,
		r.Website != "",
		r.Address != "",
		r.City != "",
		r.Country != "",
	} {
		if set {
			populated++
		}
	}
	return float64(populated) / float64(trackedFieldCount)
}
