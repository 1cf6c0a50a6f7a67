package core

import (
	"fmt"

	"github.com/google/uuid"
)

// AreaSet holds the inspection areas and the active-area pointer.
// It keeps two invariants after every mutation: at least one area exists and
// the active id names one of them.
type AreaSet struct {
	areas    []Area
	active   string
	repaired bool
}

// NewAreaSet builds a set from persisted areas, restoring the invariants.
func NewAreaSet(areas []Area, active string) *AreaSet {
	s := &AreaSet{active: active}
	for _, a := range areas {
		s.areas = append(s.areas, a.clone())
	}
	s.repaired = s.ensure()
	return s
}

// Repaired reports whether building the set regenerated an area id or reset an
// unknown status, i.e. whether the input differs from what the set now holds.
func (s *AreaSet) Repaired() bool {
	return s.repaired
}

func newAreaID() string {
	return uuid.NewString()
}

// ensure restores the area floor, fills missing ids and maps, resets unknown
// statuses and repairs a dangling active id. It reports whether an id or a
// status had to change.
func (s *AreaSet) ensure() bool {
	changed := false
	if len(s.areas) == 0 {
		s.areas = []Area{{ID: newAreaID(), Name: DefaultAreaName(0), Items: map[string]Answer{}}}
	}
	seen := make(map[string]struct{}, len(s.areas))
	for i := range s.areas {
		if _, dup := seen[s.areas[i].ID]; s.areas[i].ID == "" || dup {
			s.areas[i].ID = newAreaID()
			changed = true
		}
		seen[s.areas[i].ID] = struct{}{}
		if s.areas[i].Items == nil {
			s.areas[i].Items = map[string]Answer{}
		}
		for id, ans := range s.areas[i].Items {
			if !ans.Status.Valid() {
				ans.Status = StatusUnset
				s.areas[i].Items[id] = ans
				changed = true
			}
			if ans.Empty() {
				delete(s.areas[i].Items, id)
			}
		}
	}
	if s.indexOf(s.active) < 0 {
		s.active = s.areas[0].ID
	}
	return changed
}

func (s *AreaSet) indexOf(id string) int {
	for i, a := range s.areas {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// List returns deep copies of the areas in order.
func (s *AreaSet) List() []Area {
	out := make([]Area, len(s.areas))
	for i, a := range s.areas {
		out[i] = a.clone()
	}
	return out
}

// Get returns a copy of one area and its position.
func (s *AreaSet) Get(id string) (Area, int, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Area{}, -1, false
	}
	return s.areas[i].clone(), i, true
}

// Active returns the active area id.
func (s *AreaSet) Active() string {
	return s.active
}

// Add appends a new empty area and makes it active.
func (s *AreaSet) Add(name string) Area {
	a := Area{ID: newAreaID(), Name: name, Items: map[string]Answer{}}
	s.areas = append(s.areas, a)
	s.active = a.ID
	return a.clone()
}

// Remove deletes an area. When the active area is removed, the one before it
// becomes active, or the first area when none precedes it.
func (s *AreaSet) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrAreaNotFound
	}
	if len(s.areas) <= 1 {
		return &LastAreaError{AreaID: id}
	}
	s.areas = append(s.areas[:i:i], s.areas[i+1:]...)
	if s.active == id {
		if i > 0 {
			s.active = s.areas[i-1].ID
		} else {
			s.active = s.areas[0].ID
		}
	}
	return nil
}

// SetActive activates id; unknown ids are ignored.
func (s *AreaSet) SetActive(id string) bool {
	if s.indexOf(id) < 0 {
		return false
	}
	s.active = id
	return true
}

// Rename sets the user label of an area.
func (s *AreaSet) Rename(id, name string) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrAreaNotFound
	}
	s.areas[i].Name = name
	return nil
}

// SetNotes sets the free-form notes of an area.
func (s *AreaSet) SetNotes(id, notes string) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrAreaNotFound
	}
	s.areas[i].Notes = notes
	return nil
}

// SetAnswer merges patch into the answer for itemID and returns the result.
// An answer that ends up empty is removed from the area.
func (s *AreaSet) SetAnswer(areaID, itemID string, patch AnswerPatch) (Answer, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return Answer{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}
	i := s.indexOf(areaID)
	if i < 0 {
		return Answer{}, ErrAreaNotFound
	}
	items := s.areas[i].Items
	merged := patch.apply(items[itemID])
	items[itemID] = merged
	gcAnswer(items, itemID)
	return merged, nil
}

// ClearAnswers drops every answer recorded in one area.
func (s *AreaSet) ClearAnswers(areaID string) error {
	i := s.indexOf(areaID)
	if i < 0 {
		return ErrAreaNotFound
	}
	s.areas[i].Items = map[string]Answer{}
	return nil
}

// replace swaps in reconciled areas.
func (s *AreaSet) replace(areas []Area) {
	s.areas = areas
	_ = s.ensure()
}

// gcAnswer is the single place that enforces answer sparsity.
func gcAnswer(items map[string]Answer, itemID string) {
	if ans, ok := items[itemID]; ok && ans.Empty() {
		delete(items, itemID)
	}
}
