// SPDX-License-Identifier: MPL-2.0

package order

import (
	"bytes"
	"errors"
	"fmt"
	"maps"

	"github.com/pelletier/go-toml/v2"
)

const (
	keyVersion = "version"
	keyEntry   = "entry"

	keyName        = "name"
	keyKind        = "kind"
	keyLabel       = "label"
	keyDisabled    = "disabled"
	keyHorizontal  = "horizontal"
	keyUnnumbered  = "unnumbered"
	keyTitle       = "title"
	keyDescription = "description"
	keyReadOnly    = "read_only"
)

// ErrMalformedRecord is returned when an order record cannot be decoded.
var ErrMalformedRecord = errors.New("malformed order record")

// Decode parses an order record. Entries without a usable name are skipped
// and reported in warnings; only undecodable TOML is an error.
func Decode(data []byte) (rec *Record, warnings []error, err error) {
	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
	}

	rec = New()
	if v, ok := raw[keyVersion]; ok {
		n, isInt := v.(int64)
		if !isInt {
			return nil, nil, fmt.Errorf("%w: version must be an integer, got %T", ErrMalformedRecord, v)
		}
		rec.Version = int(n)
	}
	delete(raw, keyVersion)

	if v, ok := raw[keyEntry]; ok {
		list, isList := v.([]any)
		if !isList {
			return nil, nil, fmt.Errorf("%w: entry must be an array of tables, got %T", ErrMalformedRecord, v)
		}
		for i, item := range list {
			table, isTable := item.(map[string]any)
			if !isTable {
				warnings = append(warnings, fmt.Errorf("entry[%d]: not a table, skipped", i))
				continue
			}
			e, entryErr := decodeEntry(table)
			if entryErr != nil {
				warnings = append(warnings, fmt.Errorf("entry[%d]: %w", i, entryErr))
				continue
			}
			rec.Entries = append(rec.Entries, e)
		}
	}
	delete(raw, keyEntry)

	if len(raw) > 0 {
		rec.extra = raw
	}
	return rec, warnings, nil
}

func decodeEntry(table map[string]any) (Entry, error) {
	var e Entry
	rest := maps.Clone(table)

	name, ok := rest[keyName].(string)
	if !ok || name == "" {
		return Entry{}, errors.New("missing name, skipped")
	}
	e.Name = name
	delete(rest, keyName)

	str := func(key string, dst *string) {
		if s, ok := rest[key].(string); ok {
			*dst = s
			delete(rest, key)
		}
	}
	flag := func(key string, dst *bool) {
		if b, ok := rest[key].(bool); ok {
			*dst = b
			delete(rest, key)
		}
	}
	str(keyKind, &e.KindHint)
	str(keyLabel, &e.Label)
	str(keyTitle, &e.Title)
	str(keyDescription, &e.Description)
	flag(keyDisabled, &e.Disabled)
	flag(keyHorizontal, &e.Horizontal)
	flag(keyUnnumbered, &e.Unnumbered)
	flag(keyReadOnly, &e.ReadOnly)

	if len(rest) > 0 {
		e.extra = rest
	}
	return e, nil
}

// Encode renders the record as TOML. Unknown keys read by Decode are written
// back; known keys with zero values are omitted.
func (r *Record) Encode() ([]byte, error) {
	doc := maps.Clone(r.extra)
	if doc == nil {
		doc = map[string]any{}
	}
	doc[keyVersion] = r.Version

	entries := make([]map[string]any, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, e.encode())
	}
	doc[keyEntry] = entries

	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode order record: %w", err)
	}
	return data, nil
}

func (e Entry) encode() map[string]any {
	m := maps.Clone(e.extra)
	if m == nil {
		m = map[string]any{}
	}
	m[keyName] = e.Name
	set := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	on := func(key string, v bool) {
		if v {
			m[key] = true
		}
	}
	set(keyKind, e.KindHint)
	set(keyLabel, e.Label)
	set(keyTitle, e.Title)
	set(keyDescription, e.Description)
	on(keyDisabled, e.Disabled)
	on(keyHorizontal, e.Horizontal)
	on(keyUnnumbered, e.Unnumbered)
	on(keyReadOnly, e.ReadOnly)
	return m
}
