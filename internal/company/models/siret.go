package models

import (
	"fmt"
	"strconv"
)

// siretWidth is the display width of a SIRET.
const siretWidth = 14

// ComposeSiret renders siren followed by nic zero-padded to five digits. A nic
// wider than five digits is kept whole.
func ComposeSiret(siren, nic int64) string {
	return strconv.FormatInt(siren, 10) + fmt.Sprintf("%05d", nic)
}

// IsConsistent reports whether siret is the composition of siren and nic.
//
// The width condition is evaluated on the siret right-aligned in a 14-column
// field, which is exactly 14 characters for any siret of up to 14 digits. Shorter
// identifiers therefore pass as long as the composition matches.
func IsConsistent(siret, siren, nic int64) bool {
	s := strconv.FormatInt(siret, 10)
	return s == ComposeSiret(siren, nic) && len(fmt.Sprintf("%*s", siretWidth, s)) == siretWidth
}
