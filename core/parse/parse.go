package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when no JSON object or array can be located in the
// model output.
var ErrNoJSON = errors.New("no JSON value found in content")

// ParseStringAs parses model output into T.
//
// Primitive targets (string, bool, int, uint, float) are converted directly,
// falling back to a {"type": ..., "value": ...} envelope when the model wrapped
// the value. Complex targets (structs, maps, slices) go through a layered
// recovery: strict unmarshal, then the JSON candidate found inside prose or a
// markdown fence, then jsonrepair, then schema-envelope unwrapping.
//
// Example:
//
//	takes, err := parse.ParseStringAs[TakeList]("```json\n{\"takes\": []}\n```")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		if strings.HasPrefix(strings.TrimSpace(content), "{") {
			if unwrapped, err := tryUnwrapPrimitive(content); err == nil {
				target.SetString(unwrapped)
				return result, nil
			}
		}
		target.SetString(content)
		return result, nil

	case reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		err := setPrimitive(target, strings.TrimSpace(content))
		if err != nil {
			if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
				if retryErr := setPrimitive(target, unwrapped); retryErr == nil {
					return result, nil
				}
			}
			return result, fmt.Errorf("failed to parse content as %s: %w", target.Kind(), err)
		}
		return result, nil
	}

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	candidate, err := ExtractJSON(content)
	if err != nil {
		return result, fmt.Errorf("failed to parse content as %T: %w", result, err)
	}
	if err = json.Unmarshal([]byte(candidate), &result); err == nil {
		return result, nil
	}

	repairedJSON, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}
	if err = json.Unmarshal([]byte(repairedJSON), &result); err == nil {
		return result, nil
	}

	// Models sometimes echo the schema shape and wrap every value.
	if unwrapped, unwrapErr := unwrapSchemaValues(repairedJSON); unwrapErr == nil {
		if retryErr := json.Unmarshal([]byte(unwrapped), &result); retryErr == nil {
			return result, nil
		}
	}
	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (repaired: %s)", result, err, repairedJSON)
}

// ExtractJSON returns the first JSON object or array embedded in content. A
// ```json fenced block wins over bare braces. The returned candidate may
// still be malformed and is meant to be fed to jsonrepair.
func ExtractJSON(content string) (string, error) {
	trimmed := strings.TrimSpace(content)

	if start := strings.Index(trimmed, "```"); start >= 0 {
		fenced := trimmed[start+3:]
		if newline := strings.IndexByte(fenced, '\n'); newline >= 0 {
			fenced = fenced[newline+1:]
		}
		if end := strings.Index(fenced, "```"); end >= 0 {
			fenced = fenced[:end]
		}
		if fenced = strings.TrimSpace(fenced); fenced != "" {
			return fenced, nil
		}
	}

	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	closing := byte('}')
	if trimmed[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(trimmed, closing)
	if end <= start {
		// Unterminated; hand the tail to the repairer.
		return trimmed[start:], nil
	}
	return trimmed[start : end+1], nil
}

func setPrimitive(target reflect.Value, content string) error {
	switch target.Kind() {
	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return err
		}
		target.SetBool(val)
	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return err
		}
		target.SetFloat(val)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return err
		}
		target.SetInt(val)
	default:
		val, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return err
		}
		target.SetUint(val)
	}
	return nil
}

// tryUnwrapPrimitive returns the string form of value in {"type": ..., "value": ...}.
func tryUnwrapPrimitive(content string) (string, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	_, hasType := data["type"]
	value, hasValue := data["value"]
	if !hasType || !hasValue || len(data) != 2 {
		return "", fmt.Errorf("not a schema-wrapped value")
	}

	switch typed := value.(type) {
	case string:
		return typed, nil
	case float64, bool:
		return fmt.Sprintf("%v", typed), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaValues rewrites {"name": {"type": "string", "value": "x"}}
// into {"name": "x"} at every depth.
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}
	encoded, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func recursiveUnwrap(data any) any {
	switch typed := data.(type) {
	case map[string]any:
		if _, hasType := typed["type"]; hasType {
			if value, hasValue := typed["value"]; hasValue && len(typed) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(typed))
		for key, val := range typed {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []any:
		result := make([]any, len(typed))
		for i, val := range typed {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}
