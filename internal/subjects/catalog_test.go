package subjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	subj, ok := Lookup("MTL1001")
	require.True(t, ok)
	assert.Equal(t, "Mathematics I", subj.Name)

	_, ok = Lookup("XXX0000")
	assert.False(t, ok)
}

func TestAllReturnsACopy(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	all[0].Name = "mutated"

	fresh := All()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}
