package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

func parseJSON(data []byte) (Values, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	out := make(Values)
	flattenJSON(out, "", v)
	return out, nil
}

func flattenJSON(out Values, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && prefix != "" {
			out[prefix] = "{}"
		}
		for k, child := range t {
			flattenJSON(out, join(prefix, k), child)
		}
	case []any:
		if len(t) == 0 && prefix != "" {
			out[prefix] = "[]"
		}
		for i, child := range t {
			flattenJSON(out, join(prefix, "["+strconv.Itoa(i)+"]"), child)
		}
	case string:
		out[prefix] = t
	case json.Number:
		out[prefix] = t.String()
	case bool:
		out[prefix] = strconv.FormatBool(t)
	case nil:
		out[prefix] = "null"
	}
}
