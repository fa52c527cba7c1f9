package contact

// Record is the canonical contact shape produced by the extraction
// pipeline. Every field is always present when serialized: scalars
// default to "" and the array fields to empty slices, so consumers
// branch on empty values, never on missing keys.
type Record struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Emails       []string `json:"emails"`
	PhoneNumbers []string `json:"phoneNumbers"`
	Website      string   `json:"website"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Zipcode      string   `json:"zipcode"`
	Country      string   `json:"country"`
	Notes        string   `json:"notes"`
}

// Empty returns a well-formed record with no populated fields.
func Empty() Record {
	return Record{Emails: []string{}, PhoneNumbers: []string{}}
}

// IsEmpty reports whether no field of the record is populated.
func (r Record) IsEmpty() bool {
	return r.FirstName == "" && r.LastName == "" && r.Company == "" &&
		r.Position == "" && len(r.Emails) == 0 && len(r.PhoneNumbers) == 0 &&
		r.Website == "" && r.Address == "" && r.City == "" &&
		r.Zipcode == "" && r.Country == "" && r.Notes == ""
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Emails = append([]string{}, r.Emails...)
	out.PhoneNumbers = append([]string{}, r.PhoneNumbers...)
	return out
}
