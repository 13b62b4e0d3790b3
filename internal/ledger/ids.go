package ledger

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// ID prefixes for generated documents.
const (
	PrefixOrder    = "ord"
	PrefixRecharge = "rch"
	PrefixService  = "svc"
)

// NewID returns a K-sortable "prefix_suffix" identifier.
func NewID(prefix string) string {
	tid, err := typeid.Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("ledger: invalid id prefix %q: %v", prefix, err))
	}
	return tid.String()
}
