package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractTextFromResponse pulls the transcript out of an API response
// body. textPath takes priority; with no path (or no match) the top-level
// "text" field is used, then any non-empty top-level string.
func ExtractTextFromResponse(body []byte, textPath string) string {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return ""
	}

	if textPath != "" {
		if v, ok := ExtractByPath(root, textPath); ok {
			return v
		}
	}

	if m, ok := root.(map[string]interface{}); ok {
		if v, exists := m["text"]; exists {
			if s, ok := scalarString(v); ok {
				return s
			}
		}
		for _, val := range m {
			if s, ok := val.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ExtractByPath walks a parsed JSON structure along a dot-separated path
// with optional [n] indexes, e.g. "results[0].alternatives[0].transcript".
func ExtractByPath(root interface{}, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := ParseKeyAndIndexes(part)
		if err != nil {
			return "", false
		}

		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return "", false
			}
			next, exists := m[key]
			if !exists {
				return "", false
			}
			cur = next
		}

		for _, idx := range idxs {
			arr, ok := cur.([]interface{})
			if !ok {
				return "", false
			}
			if idx < 0 || idx >= len(arr) {
				return "", false
			}
			cur = arr[idx]
		}
	}
	return scalarString(cur)
}

// scalarString renders a JSON leaf as text. Integral floats print without
// the decimal point.
func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s)), true
		}
		return fmt.Sprintf("%v", s), true
	case bool:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}

// ParseKeyAndIndexes splits a path token like "foo[0][1]", "[0]" or "bar"
// into its base key and index list.
func ParseKeyAndIndexes(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty token")
	}
	idxs := []int{}
	br := strings.Index(token, "[")
	if br == -1 {
		return token, idxs, nil
	}
	key := token[:br]
	rest := token[br:]
	for len(rest) > 0 {
		if !strings.HasPrefix(rest, "[") {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		closePos := strings.Index(rest, "]")
		if closePos == -1 {
			return "", nil, fmt.Errorf("missing closing ] in %s", token)
		}
		numStr := rest[1:closePos]
		if numStr == "" {
			return "", nil, fmt.Errorf("empty index in %s", token)
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return "", nil, fmt.Errorf("invalid index '%s' in %s", numStr, token)
		}
		idxs = append(idxs, n)
		rest = rest[closePos+1:]
	}
	return key, idxs, nil
}
