package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ParseSchema decodes a checklist document and normalizes it.
func ParseSchema(text string) (Schema, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, schemaErrorf("", "checklist is not valid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, schemaErrorf("", "checklist is not valid JSON: unexpected data after the top-level array")
	}
	return Normalize(raw)
}

// Normalize validates a decoded checklist document and returns a canonical,
// independent Schema. Typed lists (Schema, []Section, []map[string]any) are
// accepted too and go through the same validation.
//
// Rules are applied in document order; the first violation is returned as a
// *SchemaError.
func Normalize(raw any) (Schema, error) {
	if _, generic := raw.([]any); !generic && isList(raw) {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, schemaErrorf("", "checklist cannot be encoded: %v", err)
		}
		return ParseSchema(string(data))
	}

	sections, ok := raw.([]any)
	if !ok || len(sections) == 0 {
		return nil, schemaErrorf("", "checklist must be a non-empty array of categories")
	}

	sectionIDs := make(map[string]struct{}, len(sections))
	itemIDs := make(map[string]struct{})
	out := make(Schema, 0, len(sections))

	for si, rawSection := range sections {
		path := fmt.Sprintf("[%d]", si)
		obj, ok := rawSection.(map[string]any)
		if !ok {
			return nil, schemaErrorf(path, "category %d is malformed", si+1)
		}

		id, err := coerceString(obj["id"], path+".id")
		if err != nil {
			return nil, err
		}
		id = strings.TrimSpace(id)
		title, err := coerceString(obj["title"], path+".title")
		if err != nil {
			return nil, err
		}
		title = strings.TrimSpace(title)
		rawItems, _ := obj["items"].([]any)

		if id == "" {
			return nil, schemaErrorf(path+".id", "category %d must have an id", si+1)
		}
		if _, dup := sectionIDs[id]; dup {
			return nil, schemaErrorf(path+".id", "category id %q is duplicated", id)
		}
		sectionIDs[id] = struct{}{}

		if title == "" {
			return nil, schemaErrorf(path+".title", "category %d must have a title", si+1)
		}
		if len(rawItems) == 0 {
			return nil, schemaErrorf(path+".items", "category %q must have at least one item", title)
		}

		items := make([]Item, 0, len(rawItems))
		for ii, rawItem := range rawItems {
			itemPath := fmt.Sprintf("%s.items[%d]", path, ii)
			it, err := normalizeItem(rawItem, itemPath, title, ii, itemIDs)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}

		out = append(out, Section{ID: id, Title: title, Items: items})
	}

	return out, nil
}

func normalizeItem(raw any, path, sectionTitle string, index int, seen map[string]struct{}) (Item, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Item{}, schemaErrorf(path, "item %d in category %q is malformed", index+1, sectionTitle)
	}

	id, err := coerceString(obj["id"], path+".id")
	if err != nil {
		return Item{}, err
	}
	id = strings.TrimSpace(id)
	title, err := coerceString(obj["title"], path+".title")
	if err != nil {
		return Item{}, err
	}
	title = strings.TrimSpace(title)
	placeholder, err := coerceString(obj["notePlaceholder"], path+".notePlaceholder")
	if err != nil {
		return Item{}, err
	}

	if id == "" {
		return Item{}, schemaErrorf(path+".id", "item %d in category %q must have an id", index+1, sectionTitle)
	}
	if _, dup := seen[id]; dup {
		return Item{}, schemaErrorf(path+".id", "item id %q is duplicated", id)
	}
	seen[id] = struct{}{}

	if title == "" {
		return Item{}, schemaErrorf(path+".title", "item %q must have a title", id)
	}

	return Item{ID: id, Title: title, NotePlaceholder: placeholder}, nil
}

// coerceString turns a scalar JSON value into text. Missing, null, false and
// zero become the empty string; objects and arrays are rejected.
func coerceString(v any, path string) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "", nil
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return t.String(), nil
		}
		return formatNumber(f), nil
	case float64:
		return formatNumber(t), nil
	default:
		return "", schemaErrorf(path, "%s must be a string", path)
	}
}

// formatNumber spells a number the way it reads as text: 1.0 is "1" and zero
// is empty.
func formatNumber(f float64) string {
	if f == 0 || math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isList reports whether v is a typed slice or array (e.g. Schema or
// []map[string]any) that should be normalized like a decoded JSON array.
func isList(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// StringifySchema renders the schema as the editable configuration document:
// two-space indented JSON with stable key order.
func StringifySchema(s Schema) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if s == nil {
		s = Schema{}
	}
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("failed to encode checklist: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
