package core

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// TemplateStore manages named checklist configurations. The built-in template
// is always present, is regenerated from DefaultSchema on load, and can be
// neither overwritten nor deleted.
type TemplateStore struct {
	templates []Template
	current   string
}

type storedTemplate struct {
	Name     string          `json:"name"`
	Sections json.RawMessage `json:"sections"`
}

// LoadTemplates rebuilds the store from the persisted list. The built-in
// template always comes first. Broken entries are dropped with a warning and
// never abort the rest of the load.
func LoadTemplates(raw, current string, logger *slog.Logger) *TemplateStore {
	if logger == nil {
		logger = slog.Default()
	}
	ts := &TemplateStore{templates: []Template{BuiltinTemplate()}}

	var entries []json.RawMessage
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			logger.Warn("discarding unreadable template list", "error", err)
			entries = nil
		}
	}

	for i, entry := range entries {
		var st storedTemplate
		if err := json.Unmarshal(entry, &st); err != nil {
			logger.Warn("dropping malformed template", "index", i, "error", err)
			continue
		}
		name := strings.TrimSpace(st.Name)
		switch {
		case name == "":
			logger.Warn("dropping template without a name", "index", i)
			continue
		case name == BuiltinTemplateName:
			continue
		case ts.index(name) >= 0:
			logger.Warn("dropping duplicate template", "name", name)
			continue
		}
		schema, err := ParseSchema(string(st.Sections))
		if err != nil {
			logger.Warn("dropping invalid template", "name", name, "error", err)
			continue
		}
		ts.templates = append(ts.templates, Template{Name: name, Sections: schema})
	}

	ts.current = BuiltinTemplateName
	if ts.index(current) >= 0 {
		ts.current = current
	}
	return ts
}

func (ts *TemplateStore) index(name string) int {
	for i, t := range ts.templates {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Names lists template names in stored order.
func (ts *TemplateStore) Names() []string {
	names := make([]string, len(ts.templates))
	for i, t := range ts.templates {
		names[i] = t.Name
	}
	return names
}

// List returns deep copies of all templates.
func (ts *TemplateStore) List() []Template {
	out := make([]Template, len(ts.templates))
	for i, t := range ts.templates {
		out[i] = Template{Name: t.Name, Sections: t.Sections.Clone()}
	}
	return out
}

// Get returns a copy of the named template.
func (ts *TemplateStore) Get(name string) (Template, bool) {
	i := ts.index(name)
	if i < 0 {
		return Template{}, false
	}
	t := ts.templates[i]
	return Template{Name: t.Name, Sections: t.Sections.Clone()}, true
}

// CurrentName returns the name of the current template.
func (ts *TemplateStore) CurrentName() string {
	return ts.current
}

// Select makes name current and returns a copy of its schema.
// It reports false, changing nothing, when no such template exists.
func (ts *TemplateStore) Select(name string) (Schema, bool) {
	i := ts.index(name)
	if i < 0 {
		return nil, false
	}
	ts.current = name
	return ts.templates[i].Sections.Clone(), true
}

// SaveOverwrite replaces the schema of an existing template.
func (ts *TemplateStore) SaveOverwrite(name string, schema Schema) error {
	if name == BuiltinTemplateName {
		return &ProtectedTemplateError{Name: name, Op: "overwrite"}
	}
	i := ts.index(name)
	if i < 0 {
		return ErrTemplateNotFound
	}
	norm, err := Normalize(schema)
	if err != nil {
		return err
	}
	ts.templates[i].Sections = norm
	return nil
}

// Add appends a new template without changing the current one.
func (ts *TemplateStore) Add(name string, schema Schema) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" || ts.index(name) >= 0 {
		return Template{}, &DuplicateNameError{Name: name}
	}
	norm, err := Normalize(schema)
	if err != nil {
		return Template{}, err
	}
	ts.templates = append(ts.templates, Template{Name: name, Sections: norm})
	return Template{Name: name, Sections: norm.Clone()}, nil
}

// SaveAs appends a new template and makes it current.
func (ts *TemplateStore) SaveAs(name string, schema Schema) (Template, error) {
	t, err := ts.Add(name, schema)
	if err != nil {
		return Template{}, err
	}
	ts.current = t.Name
	return t, nil
}

// Delete removes a template. Deleting an unknown name is a no-op. When the
// current template is removed the built-in (or the first remaining template)
// becomes current and switched is true.
func (ts *TemplateStore) Delete(name string) (switched bool, err error) {
	if name == BuiltinTemplateName || (len(ts.templates) <= 1 && ts.index(name) >= 0) {
		return false, &ProtectedTemplateError{Name: name, Op: "delete"}
	}
	i := ts.index(name)
	if i < 0 {
		return false, nil
	}
	ts.templates = append(ts.templates[:i:i], ts.templates[i+1:]...)

	if ts.current != name {
		return false, nil
	}
	if ts.index(BuiltinTemplateName) >= 0 {
		ts.current = BuiltinTemplateName
	} else {
		ts.current = ts.templates[0].Name
	}
	return true, nil
}

// MarshalJSON encodes the template list as persisted under KeyTemplates.
func (ts *TemplateStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.templates)
}
