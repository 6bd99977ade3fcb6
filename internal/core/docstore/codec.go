package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Encode converts a JSON-tagged struct into a Document.
// Numbers are kept as json.Number so decimals survive untouched.
// The store-managed "version" key is dropped, "id" is dropped when empty.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	doc, err := DecodeJSON(raw)
	if err != nil {
		return nil, err
	}

	delete(doc, KeyVersion)
	if s, ok := doc[KeyID].(string); ok && s == "" {
		delete(doc, KeyID)
	}
	return doc, nil
}

// Decode fills the JSON-tagged struct v from doc.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DecodeJSON parses a JSON object into a Document.
func DecodeJSON(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document json: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Normalize round-trips a value through JSON so it compares equal to what a
// store holds (maps, slices, strings, json.Number, bool, nil).
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches reports whether doc satisfies the equality filter.
func Matches(doc Document, where Filter) bool {
	for field, want := range where {
		got, ok := doc[field]
		if !ok {
			return false
		}
		nw, err := Normalize(want)
		if err != nil {
			return false
		}
		ng, err := Normalize(got)
		if err != nil {
			return false
		}
		if !reflect.DeepEqual(nw, ng) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of doc.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return Clone(t)
	case map[string]any:
		return map[string]any(Clone(Document(t)))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
