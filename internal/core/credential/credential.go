package credential

import (
	"sort"
	"strconv"
)

// Credential is the opaque numbering credential of one institution.
type Credential struct {
	Name string `mapstructure:"nombre" json:"nombre"`
	Data string `mapstructure:"data" json:"-"`
}

// Store resolves credentials by institution ID.
type Store interface {
	Get(institucionID string) (Credential, bool)
	// IDs returns the known institution IDs in SortIDs order.
	IDs() []string
}

// SortIDs orders institution IDs in place: canonical non-negative integers
// first, ascending by value, then any other ID in lexical order.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, aNum := canonicalUint(ids[i])
		b, bNum := canonicalUint(ids[j])
		switch {
		case aNum && bNum:
			return a < b
		case aNum != bNum:
			return aNum
		default:
			return ids[i] < ids[j]
		}
	})
}

// canonicalUint accepts decimal integers without sign or leading zeros.
func canonicalUint(id string) (uint64, bool) {
	if id == "" || (len(id) > 1 && id[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
