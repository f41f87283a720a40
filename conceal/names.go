package conceal

import (
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// DeriveFieldNames produces the two injected field names for a class,
// deterministically from the JVM string hash of its internal name. The
// derivation is a cross-implementation contract: extraction by another
// implementation depends on the same hash and modular arithmetic.
//
//	table field: _T<d> for even hashes, _S<d> for odd, d = |hash| mod 10
//	check field: _<c>k, c = 'a' + |hash| mod 26
func DeriveFieldNames(internalName string) (tableField, checkField string) {
	hash := format.StringHash(internalName)
	abs := hash
	if abs < 0 {
		abs = -abs
	}

	prefix := "_T"
	if hash%2 != 0 {
		prefix = "_S"
	}
	tableField = fmt.Sprintf("%s%d", prefix, abs%10)
	checkField = fmt.Sprintf("_%ck", rune('a'+abs%26))
	return tableField, checkField
}
