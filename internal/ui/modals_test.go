package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModals_OpenClose(t *testing.T) {
	m := DefaultModals()

	require.NoError(t, m.Open(ModalCreateOrder))
	views := m.Views()
	assert.True(t, views[ModalCreateOrder].Open)
	assert.False(t, views[ModalUpdateStatus].Open, "opening one modal leaves the others alone")

	require.NoError(t, m.Close(ModalCreateOrder))
	assert.False(t, m.Views()[ModalCreateOrder].Open)
}

func TestModals_DuplicateRejected(t *testing.T) {
	m := NewModals()
	first := NewModalController("x", "First")
	require.NoError(t, m.Register(first))

	err := m.Register(NewModalController("x", "Second"))
	assert.ErrorIs(t, err, ErrDuplicateModal)

	got, err := m.Get("x")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, "First", m.Views()["x"].Title)
}

func TestModals_Unknown(t *testing.T) {
	m := DefaultModals()
	assert.ErrorIs(t, m.Open("nope"), ErrUnknownModal)
	assert.ErrorIs(t, m.Close("nope"), ErrUnknownModal)
}
