// Package subjects holds the fixed subject catalog. This is configuration,
// not logic: the table mirrors the department's first-year course list.
package subjects

// Subject is one catalog entry.
type Subject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalog = []Subject{
	{Code: "CEL1020", Name: "Engineering Mechanics"},
	{Code: "MEL1021", Name: "Engineering Graphics & Drafting"},
	{Code: "MTL1001", Name: "Mathematics I"},
	{Code: "PHL1083", Name: "Physics"},
	{Code: "PBL1021", Name: "Punjabi (Compulsory)"},
	{Code: "PBL1022", Name: "Basic Punjabi"},
	{Code: "HSL4000", Name: "Punjab History & Culture"},
}

// All returns the catalog in display order.
func All() []Subject {
	out := make([]Subject, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a subject code to its name.
func Lookup(code string) (Subject, bool) {
	for _, s := range catalog {
		if s.Code == code {
			return s, true
		}
	}
	return Subject{}, false
}
