package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errMetadataPair = errors.New("metadata entry is not a key=value pair")

// Metadata is the set of key/value pairs published alongside a registration
// entry. In JSON it is either an object (values stringified) or a legacy
// comma-separated "key=value" string.
type Metadata map[string]string

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case map[string]interface{}:
		parsed := make(Metadata, len(value))
		for k, raw := range value {
			parsed[k] = stringifyMetadataValue(raw)
		}

		*m = parsed

		return nil
	case string:
		parsed, err := ParseMetadata(value)
		if err != nil {
			return err
		}

		*m = parsed

		return nil
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("metadata must be an object or a string, got %T", v)
	}
}

// ParseMetadata decodes the textual metadata forms: a JSON object, or
// comma-separated "key=value" pairs with surrounding whitespace ignored.
func ParseMetadata(data string) (Metadata, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(data), &obj); err == nil {
		parsed := make(Metadata, len(obj))
		for k, raw := range obj {
			parsed[k] = stringifyMetadataValue(raw)
		}

		return parsed, nil
	}

	parsed := make(Metadata)

	for _, pair := range strings.Split(data, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q", errMetadataPair, strings.TrimSpace(pair))
		}

		parsed[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return parsed, nil
}

func stringifyMetadataValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}

		return string(encoded)
	}
}
