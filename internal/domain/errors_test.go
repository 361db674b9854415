package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := NewError(ErrStorage, "create", "Alien", io.ErrUnexpectedEOF)

	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `create: storage failure: "Alien": unexpected EOF`, err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", errors.New("boom"), nil},
		{"sentinel", ErrEmptyCatalog, ErrEmptyCatalog},
		{"typed", NewError(ErrDuplicateKey, "add", "Heat", nil), ErrDuplicateKey},
		{"wrapped", errors.Join(errors.New("ctx"), NewError(ErrLookupFailure, "add", "", nil)), ErrLookupFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSnapshotFind(t *testing.T) {
	snap := Snapshot{{Title: "Heat", Year: 1995}, {Title: "Alien", Year: 1979}}

	m, ok := snap.Find("Alien")
	require.True(t, ok)
	assert.Equal(t, 1979, m.Year)
	assert.False(t, snap.Contains("alien"))
	assert.Equal(t, []string{"Heat", "Alien"}, snap.Titles())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("   "))
	assert.Equal(t, "x", Deref(StringPtr(" x ")))
	assert.Equal(t, "", Deref(nil))
}
