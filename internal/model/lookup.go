package model

// Lookup is a small reference record (category, condition, item source,
// location, ...) resolved by id.
type Lookup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Lookup kinds, matching the path segment under /lookup/.
const (
	LookupCategories          = "categories"
	LookupConditions          = "conditions"
	LookupItemSources         = "item_sources"
	LookupLocations           = "locations"
	LookupProcurementStatuses = "procurement_statuses"
	LookupUserRoles           = "user_roles"
)

// WritableLookups lists the lookup kinds the console can create, update and
// delete. Procurement statuses and user roles are read-only reference data.
var WritableLookups = []string{
	LookupCategories,
	LookupConditions,
	LookupItemSources,
	LookupLocations,
}

// KnownLookup reports whether kind names a lookup table the API serves.
func KnownLookup(kind string) bool {
	switch kind {
	case LookupCategories, LookupConditions, LookupItemSources,
		LookupLocations, LookupProcurementStatuses, LookupUserRoles:
		return true
	}
	return false
}

// ResolveName returns the name for id in the given lookup list, or the id
// itself when no record matches. The list is never mutated.
func ResolveName(lookups []Lookup, id string) string {
	for _, l := range lookups {
		if l.ID == id {
			return l.Name
		}
	}
	return id
}
