package rastergrid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGridAddArrayReplacesByName(t *testing.T) {
	g := NewGrid(2, 2)
	first := NewArray[uint8]("band_1", KindUint8, 1, 4)
	second := NewArray[uint8]("band_1", KindUint8, 1, 4)

	g.AddArray(first)
	g.AddArray(second)

	require.Len(t, g.Arrays(), 1)
	require.Equal(t, ScalarArray(second), g.Array("band_1"))
}

func TestGridRenameKeepsActiveMarker(t *testing.T) {
	g := NewGrid(2, 2)
	g.AddArray(NewArray[uint8](CompositeArrayName, KindUint8, 1, 4))
	g.SetActiveScalars(CompositeArrayName)

	g.RenameArray(CompositeArrayName, PaletteArrayName)

	require.Nil(t, g.Array(CompositeArrayName))
	arr := g.Array(PaletteArrayName)
	require.NotNil(t, arr)
	require.Equal(t, arr, g.ActiveScalars())
}

func TestGridBlankingBounds(t *testing.T) {
	g := NewGrid(2, 2)

	g.BlankCell(-1)
	g.BlankCell(4)
	for i := 0; i < 4; i++ {
		require.False(t, g.CellBlanked(i))
	}

	g.BlankCell(2)
	require.True(t, g.CellBlanked(2))
	require.False(t, g.CellBlanked(-1))
	require.False(t, g.CellBlanked(4))
}

func TestArrayValueAccess(t *testing.T) {
	arr := NewArray[int16]("band_1", KindInt16, 2, 3)
	arr.Data()[2*2+1] = -42

	require.Equal(t, 3, arr.Tuples())
	require.Equal(t, 2, arr.Components())
	require.Equal(t, int16(-42), arr.Value(2, 1))
	require.Equal(t, -42.0, arr.Float64(2, 1))
}
