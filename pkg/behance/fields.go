package behance

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the members of an API object that its Go type does not model.
// They are written back verbatim on encode so that nothing the API sent is
// lost between decode and the content digest. Treat it as read-only.
type Extra map[string]json.RawMessage

// Get returns the raw value of key, or nil when the API did not send it
func (e Extra) Get(key string) json.RawMessage {
	if e == nil {
		return nil
	}
	return e[key]
}

// String decodes key as a string, returning "" when absent or not a string
func (e Extra) String(key string) string {
	var s string
	if raw := e.Get(key); raw != nil {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Clone returns a shallow copy; the raw values are never mutated in place
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// presence records which typed members an object was decoded with, so that
// members sent with an empty value are written back instead of omitted
type presence map[string]struct{}

func (p presence) has(key string) bool {
	_, ok := p[key]
	return ok
}

var knownKeyCache sync.Map // reflect.Type -> map[string]struct{}

// jsonName returns the member name of struct field f and whether it carries
// omitempty. ok is false for fields the encoder skips.
func jsonName(f reflect.StructField) (name string, omitEmpty bool, ok bool) {
	if !f.IsExported() {
		return "", false, false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, strings.Contains(opts, "omitempty"), true
}

// knownKeys returns the JSON member names declared by struct type t
func knownKeys(t reflect.Type) map[string]struct{} {
	if cached, ok := knownKeyCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name, _, ok := jsonName(t.Field(i)); ok {
			keys[name] = struct{}{}
		}
	}

	knownKeyCache.Store(t, keys)
	return keys
}

// decodeObject unmarshals data into the typed fields of v (a pointer to a
// method-less struct), collects every other member into extra and notes in
// present which typed members were sent.
func decodeObject(data []byte, v interface{}, extra *Extra, present *presence) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	known := knownKeys(reflect.TypeOf(v).Elem())
	seen := make(presence)
	for k := range members {
		if _, ok := known[k]; ok {
			seen[k] = struct{}{}
			delete(members, k)
		}
	}
	*present = seen

	if len(members) == 0 {
		*extra = nil
		return nil
	}
	*extra = members
	return nil
}

// encodeObject marshals the typed fields of v merged with extra. An empty
// omitempty field is left out only when it was not present at decode time.
// Output members are sorted by name, so equal values always encode to equal
// bytes.
func encodeObject(v interface{}, extra Extra, present presence) ([]byte, error) {
	members := make(map[string]json.RawMessage, len(extra)+8)
	for k, raw := range extra {
		members[k] = raw
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name, omitEmpty, ok := jsonName(rt.Field(i))
		if !ok {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && isEmptyValue(fv) && !present.has(name) {
			continue
		}
		raw, err := json.Marshal(fv.Interface())
		if err != nil {
			return nil, err
		}
		members[name] = raw
	}
	return json.Marshal(members)
}

// isEmptyValue matches encoding/json's notion of empty for omitempty
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
