// Package shelfmark holds build metadata shared by the shelf binary.
package shelfmark

// Version is the release version. Builds override it with
// -ldflags "-X github.com/mesh-intelligence/shelfmark/pkg/shelfmark.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path of this repository.
const ModulePath = "github.com/mesh-intelligence/shelfmark"
