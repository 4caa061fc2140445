// Package selection реализует состояние множественного выбора записей для пакетной проверки.
package selection

import "sort"

type transition int

const (
	enterMode transition = iota
	exitMode
	toggle
	replace
	clear
)

// State хранит режим выбора и множество выбранных идентификаторов.
// Инвариант: вне режима выбора множество пусто. State не предназначен для конкурентного использования.
type State struct {
	selectionMode bool
	selected      map[string]struct{}
	processing    bool
}

// New создаёт пустое состояние вне режима выбора.
func New() *State {
	return &State{selected: make(map[string]struct{})}
}

// apply выполняет переход целиком, поддерживая инвариант в рамках одного шага.
func (s *State) apply(t transition, ids ...string) {
	switch t {
	case enterMode:
		s.selectionMode = true
	case exitMode:
		s.selectionMode = false
		s.selected = make(map[string]struct{})
	case toggle:
		s.selectionMode = true
		id := ids[0]
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
		} else {
			s.selected[id] = struct{}{}
		}
	case replace:
		s.selectionMode = true
		next := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			next[id] = struct{}{}
		}
		s.selected = next
	case clear:
		s.selected = make(map[string]struct{})
	}
}

// SetSelectionMode включает или выключает режим выбора. Выключение очищает выбор.
func (s *State) SetSelectionMode(on bool) {
	if on {
		s.apply(enterMode)
		return
	}
	s.apply(exitMode)
}

// ExitSelectionMode выключает режим выбора и очищает выбор.
func (s *State) ExitSelectionMode() {
	s.apply(exitMode)
}

// ToggleSelection добавляет идентификатор, если его нет, и удаляет, если он уже выбран.
// Выбор вне режима выбора включает режим.
func (s *State) ToggleSelection(id string) {
	s.apply(toggle, id)
}

// SelectAll заменяет текущий выбор переданными идентификаторами и включает режим выбора.
func (s *State) SelectAll(ids []string) {
	s.apply(replace, ids...)
}

// ClearSelection очищает выбор, не меняя режим.
func (s *State) ClearSelection() {
	s.apply(clear)
}

// SelectionMode сообщает, включён ли режим выбора.
func (s *State) SelectionMode() bool {
	return s.selectionMode
}

// SelectedIDs возвращает отсортированную копию выбранных идентификаторов.
func (s *State) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsSelected сообщает, выбран ли идентификатор.
func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Len возвращает количество выбранных записей.
func (s *State) Len() int {
	return len(s.selected)
}

// SetBatchProcessing выставляет признак выполняющейся пакетной операции.
func (s *State) SetBatchProcessing(on bool) {
	s.processing = on
}

// IsBatchProcessing сообщает, выполняется ли сейчас пакетная операция.
func (s *State) IsBatchProcessing() bool {
	return s.processing
}
