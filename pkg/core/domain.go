// Package core holds the checklist domain: schema, templates, inspection areas
// and the reconciliation that keeps recorded answers consistent with the schema.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a single checklist entry. Item IDs are unique across a whole Schema.
type Item struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	NotePlaceholder string `json:"notePlaceholder"`
}

// Section groups items under a heading.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Schema is the ordered checklist definition in force for a session.
// Values returned by Normalize are never mutated in place; use Clone before editing.
type Schema []Section

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for i, sec := range s {
		items := make([]Item, len(sec.Items))
		copy(items, sec.Items)
		out[i] = Section{ID: sec.ID, Title: sec.Title, Items: items}
	}
	return out
}

// ItemIDs returns the set of every item id across all sections.
func (s Schema) ItemIDs() map[string]struct{} {
	ids := make(map[string]struct{}, s.ItemCount())
	for _, sec := range s {
		for _, it := range sec.Items {
			ids[it.ID] = struct{}{}
		}
	}
	return ids
}

// ItemCount returns the total number of items.
func (s Schema) ItemCount() int {
	n := 0
	for _, sec := range s {
		n += len(sec.Items)
	}
	return n
}

// Lookup finds the section and item for an item id.
func (s Schema) Lookup(itemID string) (Section, Item, bool) {
	for _, sec := range s {
		for _, it := range sec.Items {
			if it.ID == itemID {
				return sec, it, true
			}
		}
	}
	return Section{}, Item{}, false
}

// Template is a named, persisted schema.
type Template struct {
	Name     string `json:"name"`
	Sections Schema `json:"sections"`
}

// Status is the recorded result of one item.
type Status string

const (
	StatusUnset     Status = ""
	StatusOK        Status = "ok"
	StatusAttention Status = "attention"
	StatusIssue     Status = "issue"
)

// StatusOrder lists the settable statuses in display order.
var StatusOrder = []Status{StatusOK, StatusAttention, StatusIssue}

// Valid reports whether s is unset or one of StatusOrder.
func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusOK, StatusAttention, StatusIssue:
		return true
	}
	return false
}

// ParseStatus accepts ok, attention, issue and unset (or the empty string).
func ParseStatus(s string) (Status, error) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusOK, StatusAttention, StatusIssue, StatusUnset:
		return v, nil
	case "unset":
		return StatusUnset, nil
	default:
		return StatusUnset, fmt.Errorf("%w %q (want ok, attention, issue or unset)", ErrInvalidStatus, s)
	}
}

// Answer is the recorded status and note for one item within one area.
type Answer struct {
	Status Status `json:"status"`
	Note   string `json:"note"`
}

// Empty reports whether the answer says nothing and should not be stored.
func (a Answer) Empty() bool {
	return a.Status == StatusUnset && strings.TrimSpace(a.Note) == ""
}

// AnswerPatch is a partial update. Nil fields keep their current value.
type AnswerPatch struct {
	Status *Status
	Note   *string
}

func (p AnswerPatch) apply(a Answer) Answer {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Note != nil {
		a.Note = *p.Note
	}
	return a
}

// Area is one repeatable sub-unit of an inspection, e.g. a physical location.
// Items is sparse: answers that say nothing are not present.
type Area struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Notes string            `json:"notes"`
	Items map[string]Answer `json:"items"`
}

func (a Area) clone() Area {
	items := make(map[string]Answer, len(a.Items))
	for k, v := range a.Items {
		items[k] = v
	}
	a.Items = items
	return a
}

// DefaultAreaName is the positional placeholder for the area at index i.
func DefaultAreaName(i int) string {
	return fmt.Sprintf("エリア%d", i+1)
}

// DisplayName returns the area name, falling back to its positional placeholder.
func (a Area) DisplayName(index int) string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return DefaultAreaName(index)
}

// FormMeta holds the top-level fields not tied to any area.
type FormMeta struct {
	FacilityName     string `json:"facilityName"`
	FacilityLocation string `json:"facilityLocation"`
	InspectionDate   string `json:"inspectionDate"`
	InspectorName    string `json:"inspectorName"`
	Recipient        string `json:"recipient,omitempty"`
	GlobalNotes      string `json:"globalNotes"`
}

// PersistedState is the answer and area state written under KeyState.
type PersistedState struct {
	Form         FormMeta `json:"form"`
	Areas        []Area   `json:"areas"`
	ActiveAreaID string   `json:"-"`
}

type persistedStateJSON struct {
	Form         FormMeta `json:"form"`
	Areas        []Area   `json:"areas"`
	ActiveAreaID *string  `json:"activeAreaId"`
}

// MarshalJSON writes an empty ActiveAreaID as null.
func (p PersistedState) MarshalJSON() ([]byte, error) {
	out := persistedStateJSON{Form: p.Form, Areas: p.Areas}
	if out.Areas == nil {
		out.Areas = []Area{}
	}
	if p.ActiveAreaID != "" {
		id := p.ActiveAreaID
		out.ActiveAreaID = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the null-able activeAreaId.
func (p *PersistedState) UnmarshalJSON(data []byte) error {
	var in persistedStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Form = in.Form
	p.Areas = in.Areas
	p.ActiveAreaID = ""
	if in.ActiveAreaID != nil {
		p.ActiveAreaID = *in.ActiveAreaID
	}
	return nil
}

// CompletedItem is one answered item, flattened for summaries and reports.
type CompletedItem struct {
	AreaID    string
	AreaName  string
	SectionID string
	Section   string
	ItemID    string
	Title     string
	Status    Status
	Note      string
}
