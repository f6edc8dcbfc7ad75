package types

// Fixed shelf keys that are not reading statuses.
const ShelfKeyUnassigned = "unassigned"

// ShelfState records whether a shelf is expanded. It is keyed by the shelf
// key (a status, "unassigned", or a category ID) so it survives reloads.
type ShelfState struct {
	ShelfKey string `json:"shelf_key" yaml:"shelf_key"`
	Open     bool   `json:"open" yaml:"open"`
}
