package schema

import (
	"bytes"
	"encoding/json"
)

// FieldType classifies a payload field for the filter editor
type FieldType string

const (
	FieldNumber   FieldType = "number"
	FieldString   FieldType = "string"
	FieldLocation FieldType = "location"
)

// Field is one named, typed entry of a payload schema
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Payload is the ordered field schema inferred from a sampled event
// payload. A nil Payload means "no usable schema"; callers display nil
// and empty the same way but only nil signals nothing to show.
type Payload []Field

// FieldsFromSample derives a schema from a sampled event payload.
//
// Top-level keys are classified in document order: numbers and strings
// map to their own types, a two-number array is read as a
// [longitude, latitude] location. Keys of any other shape are dropped
// silently. Returns nil when the sample is not a JSON object or no key
// survives classification.
func FieldsFromSample(sample json.RawMessage) Payload {
	dec := json.NewDecoder(bytes.NewReader(sample))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var payload Payload
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}

		if ft, ok := classify(raw); ok {
			payload = payload.Add(key, ft)
		}
	}

	if len(payload) == 0 {
		return nil
	}
	return payload
}

func classify(raw json.RawMessage) (FieldType, bool) {
	// json.Unmarshal treats null as a no-op success for any target type
	if string(bytes.TrimSpace(raw)) == "null" {
		return "", false
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return FieldNumber, true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return FieldString, true
	}

	var coords []float64
	if err := json.Unmarshal(raw, &coords); err == nil && len(coords) == 2 {
		return FieldLocation, true
	}

	return "", false
}

// Add appends a field, or overwrites the type in place when the name is
// already present
func (p Payload) Add(name string, ft FieldType) Payload {
	for i := range p {
		if p[i].Name == name {
			p[i].Type = ft
			return p
		}
	}
	return append(p, Field{Name: name, Type: ft})
}

// Remove splices out the field at index. Removing the last field yields
// nil rather than an empty slice.
func (p Payload) Remove(index int) Payload {
	if index < 0 || index >= len(p) {
		return p
	}
	out := make(Payload, 0, len(p)-1)
	out = append(out, p[:index]...)
	out = append(out, p[index+1:]...)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Find returns the field with the given name, if present
func (p Payload) Find(name string) (Field, bool) {
	for _, f := range p {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
