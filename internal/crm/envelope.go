package crm

import (
	"encoding/json"
)

// The remote API wraps collection payloads inconsistently across
// endpoints: {"data": [...]}, {"contacts": [...]}, {"results": [...]},
// or a bare array. Extraction is an ordered list of probes; the first
// probe that yields a collection wins.

type probe func(body []byte, resource string) ([]json.RawMessage, bool)

var listProbes = []probe{
	keyProbe("data"),
	resourceKeyProbe,
	keyProbe("results"),
	bareArrayProbe,
}

// ExtractList pulls the record list out of body, whatever envelope the
// endpoint chose. The second return is false when no known shape
// matched; callers treat that as an empty collection, not a failure.
func ExtractList(body []byte, resource string) ([]json.RawMessage, bool) {
	for _, p := range listProbes {
		if records, ok := p(body, resource); ok {
			return records, true
		}
	}
	return nil, false
}

// ExtractOne pulls a single record, unwrapping the same candidate keys
// before falling back to the bare object.
func ExtractOne(body []byte, resource string) (json.RawMessage, bool) {
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	for _, key := range []string{"data", singular(resource), resource} {
		if raw, ok := obj[key]; ok && looksLikeObject(raw) {
			return raw, true
		}
	}
	if len(obj) > 0 {
		return json.RawMessage(body), true
	}
	return nil, false
}

func keyProbe(key string) probe {
	return func(body []byte, resource string) ([]json.RawMessage, bool) {
		obj := map[string]json.RawMessage{}
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, false
		}
		raw, ok := obj[key]
		if !ok {
			return nil, false
		}
		return decodeArray(raw)
	}
}

func resourceKeyProbe(body []byte, resource string) ([]json.RawMessage, bool) {
	if resource == "" {
		return nil, false
	}
	return keyProbe(resource)(body, resource)
}

func bareArrayProbe(body []byte, resource string) ([]json.RawMessage, bool) {
	return decodeArray(body)
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	return records, true
}

func looksLikeObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func singular(resource string) string {
	if len(resource) > 1 && resource[len(resource)-1] == 's' {
		return resource[:len(resource)-1]
	}
	return resource
}
