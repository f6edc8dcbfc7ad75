package types

// Standard table names for Cupboard.GetTable.
const (
	TableBooks      = "books"
	TableCategories = "categories"
	TableShelves    = "shelves"
	TableProfiles   = "profiles"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableBooks,
	TableCategories,
	TableShelves,
	TableProfiles,
}
