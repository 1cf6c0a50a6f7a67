package core

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Reconcile drops every recorded answer whose item id is not in schema.
// The input is not modified; the returned areas are independent copies.
// Reconciling an already reconciled state against the same schema changes nothing.
func Reconcile(schema Schema, areas []Area) ([]Area, int) {
	valid := schema.ItemIDs()
	dropped := 0
	out := make([]Area, len(areas))
	for i, a := range areas {
		next := a
		next.Items = make(map[string]Answer, len(a.Items))
		for id, ans := range a.Items {
			if _, ok := valid[id]; !ok {
				dropped++
				continue
			}
			next.Items[id] = ans
		}
		out[i] = next
	}
	return out, dropped
}

// legacyState is the single-area shape written before areas existed.
type legacyState struct {
	Form  FormMeta          `json:"form"`
	Items map[string]Answer `json:"items"`
}

// DecodeState reads the persisted answer state. Data written before the
// multi-area model is wrapped as the sole area, named after the legacy
// location field when present, and migrated is true so the caller can write
// the new shape back. Unreadable data yields an empty state.
func DecodeState(raw string, logger *slog.Logger) (st PersistedState, migrated bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(raw) == "" {
		return PersistedState{}, false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		logger.Warn("discarding unreadable answer state", "error", err)
		return PersistedState{}, false
	}

	if _, ok := probe["areas"]; ok {
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			logger.Warn("discarding unreadable answer state", "error", err)
			return PersistedState{}, false
		}
		return st, false
	}

	var legacy legacyState
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		logger.Warn("discarding unreadable legacy answer state", "error", err)
		return PersistedState{}, false
	}
	name := strings.TrimSpace(legacy.Form.FacilityLocation)
	if name == "" {
		name = DefaultAreaName(0)
	}
	area := Area{ID: newAreaID(), Name: name, Items: legacy.Items}
	if area.Items == nil {
		area.Items = map[string]Answer{}
	}
	logger.Info("migrated single-area answer state", "area", name, "answers", len(area.Items))
	return PersistedState{Form: legacy.Form, Areas: []Area{area}, ActiveAreaID: area.ID}, true
}
