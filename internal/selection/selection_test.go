package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Empty(t *testing.T) {
	s := New()

	assert.False(t, s.SelectionMode())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.SelectedIDs())
	assert.False(t, s.IsBatchProcessing())
}

func TestSetSelectionMode_EnterKeepsSelection(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)
	s.ToggleSelection("a")

	s.SetSelectionMode(true)

	assert.True(t, s.SelectionMode())
	assert.True(t, s.IsSelected("a"))
}

func TestToggleSelection(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)

	s.ToggleSelection("a")
	s.ToggleSelection("b")
	assert.Equal(t, []string{"a", "b"}, s.SelectedIDs())

	s.ToggleSelection("a")
	assert.False(t, s.IsSelected("a"))
	assert.Equal(t, 1, s.Len())
}

func TestSelectAll_Replaces(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)

	s.SelectAll([]string{"a", "b"})
	s.SelectAll([]string{"c"})

	assert.False(t, s.IsSelected("a"))
	assert.False(t, s.IsSelected("b"))
	assert.Equal(t, []string{"c"}, s.SelectedIDs())
}

func TestSelectAll_Duplicates(t *testing.T) {
	s := New()
	s.SelectAll([]string{"a", "a", "b"})

	assert.Equal(t, 2, s.Len())
}

func TestSelectingOutsideModeEntersMode(t *testing.T) {
	s := New()
	s.ToggleSelection("a")
	assert.True(t, s.SelectionMode())

	s.ExitSelectionMode()
	s.SelectAll([]string{"b"})
	assert.True(t, s.SelectionMode())
	assert.Equal(t, []string{"b"}, s.SelectedIDs())
}

func TestClearSelection_KeepsMode(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)
	s.SelectAll([]string{"a", "b"})

	s.ClearSelection()

	assert.True(t, s.SelectionMode())
	assert.Zero(t, s.Len())
}

func TestLeavingSelectionModeClears(t *testing.T) {
	exits := map[string]func(*State){
		"set false": func(s *State) { s.SetSelectionMode(false) },
		"exit":      func(s *State) { s.ExitSelectionMode() },
	}

	for name, exit := range exits {
		t.Run(name, func(t *testing.T) {
			s := New()
			s.SetSelectionMode(true)
			s.SelectAll([]string{"a", "b"})
			s.ToggleSelection("c")

			exit(s)

			assert.False(t, s.SelectionMode())
			assert.Zero(t, s.Len())
		})
	}
}

func TestSelectedIDs_ReturnsCopy(t *testing.T) {
	s := New()
	s.SelectAll([]string{"a"})

	ids := s.SelectedIDs()
	ids[0] = "mutated"

	assert.True(t, s.IsSelected("a"))
}
