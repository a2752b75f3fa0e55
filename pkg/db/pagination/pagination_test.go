package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct{ ID string }

func TestCursorRoundTrip(t *testing.T) {
	enc, err := EncodeCursor(Cursor{ID: "123"})
	require.NoError(t, err)

	dec, err := DecodeCursor(enc)
	require.NoError(t, err)
	require.Equal(t, "123", dec.ID)

	_, err = DecodeCursor("%%%")
	require.Error(t, err)
}

func TestPaginate(t *testing.T) {
	data := []*row{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	cursorOf := func(r *row) Cursor { return Cursor{ID: r.ID} }

	page, info := Paginate(data, 2, cursorOf)
	require.Len(t, page, 2)
	require.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextCursor)
	require.NoError(t, err)
	require.Equal(t, "2", next.ID)

	page, info = Paginate(data, 5, cursorOf)
	require.Len(t, page, 3)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}
