package conceal

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	tableFieldPattern = regexp.MustCompile(`^_[TS][0-9]$`)
	checkFieldPattern = regexp.MustCompile(`^_[a-z]k$`)
)

// Expected names derived from the host VM's String.hashCode; the scheme is a
// cross-implementation contract, so these are pinned values, not just shape
// checks.
func TestDeriveFieldNamesReference(t *testing.T) {
	cases := []struct {
		name  string
		table string
		check string
	}{
		{"TestClass", "_T6", "_wk"},
		{"Alpha", "_T6", "_ek"},
		{"Beta", "_T0", "_mk"},
		{"Carrier", "_T8", "_kk"},
		{"java/lang/String", "_S3", "_zk"},
		{"com/example/Demo", "_T2", "_ik"},
	}
	for _, c := range cases {
		table, check := DeriveFieldNames(c.name)
		assert.Equal(t, c.table, table, "table field for %q", c.name)
		assert.Equal(t, c.check, check, "check field for %q", c.name)
	}
}

func TestDeriveFieldNamesShape(t *testing.T) {
	for _, name := range []string{
		"A", "zz", "TestClass", "a/b/c/D", "VeryLongClassNameIndeed",
	} {
		table, check := DeriveFieldNames(name)
		assert.Regexp(t, tableFieldPattern, table, "class %q", name)
		assert.Regexp(t, checkFieldPattern, check, "class %q", name)
	}
}

func TestDeriveFieldNamesDistinguishClasses(t *testing.T) {
	aTable, aCheck := DeriveFieldNames("Alpha")
	bTable, bCheck := DeriveFieldNames("Beta")
	assert.False(t, aTable == bTable && aCheck == bCheck,
		"Alpha and Beta must get distinguishable names")
}
