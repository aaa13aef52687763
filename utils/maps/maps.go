package maps

import (
	"encoding/json"
	"fmt"
	"reflect"

	jsonpatch "github.com/evanphx/json-patch"
	"qurrium.com/pqp/utils"
)

// FillFromMap populates the typed fields of doc from the raw map and
// remembers the map itself for later partial updates.
func FillFromMap(doc PartialDocument, from *map[string]interface{}) error {
	b, err := json.Marshal(from)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(b, doc); err != nil {
		return err
	}
	doc.setRaw(from)
	return nil
}

// ApplyUpdates runs updateFunc against the typed document, diffs the typed
// fields before and after as a JSON merge patch, and applies that patch to
// the raw map. Fields not modeled by the struct are left untouched.
func ApplyUpdates(doc PartialDocument, updateFunc interface{}) (err error) {
	if updateFunc == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)

	before, err := structJSON(doc)
	if err != nil {
		return err
	}
	funcValue := reflect.ValueOf(updateFunc)
	docValue := reflect.ValueOf(doc)
	funcValue.Call([]reflect.Value{docValue})
	after, err := structJSON(doc)
	if err != nil {
		return err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return err
	}

	raw := doc.getRaw()
	if raw == nil {
		raw = &map[string]interface{}{}
	}
	rawBytes, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	merged, err := jsonpatch.MergePatch(rawBytes, patch)
	if err != nil {
		return err
	}
	updated := map[string]interface{}{}
	if err = json.Unmarshal(merged, &updated); err != nil {
		return err
	}
	doc.setRaw(&updated)
	return nil
}

// CopyValues fills `to` with the fields both documents model, giving it a
// fresh raw map containing only those fields.
func CopyValues(from PartialDocument, to PartialDocument) error {
	raw := from.getRaw()
	if raw == nil {
		return fmt.Errorf("source document has no raw contents")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(b, to); err != nil {
		return err
	}
	cached, err := structJSON(to)
	if err != nil {
		return err
	}
	cachedMap := map[string]interface{}{}
	if err = json.Unmarshal(cached, &cachedMap); err != nil {
		return err
	}
	to.setRaw(&cachedMap)
	return nil
}

// structJSON marshals only the json-tagged struct fields of doc, bypassing
// the raw-map MarshalJSON of the embedded BaseDocument.
func structJSON(doc PartialDocument) ([]byte, error) {
	value := reflect.ValueOf(doc)
	if value.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("%v is not a pointer", doc)
	}
	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v is not a struct pointer", doc)
	}
	valueType := value.Type()
	m := map[string]interface{}{}
	for i := 0; i < value.NumField(); i++ {
		fInfo := valueType.Field(i)
		mapKey, ok := fInfo.Tag.Lookup("json")
		if !ok {
			continue
		}
		m[mapKey] = value.Field(i).Interface()
	}
	return json.Marshal(m)
}
