// Package mcputils binds loosely typed MCP tool arguments to request structs.
package mcputils

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ArgumentGetter is an interface for getting arguments from a request
type ArgumentGetter interface {
	GetArguments() map[string]interface{}
}

// CoerceBindArguments binds MCP request arguments to a target struct with proper type coercion.
// MCP clients often send every parameter as a string, so "10" must still bind to
// an int field and "true" to a bool field.
func CoerceBindArguments[T any](request ArgumentGetter, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringScalarHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json", // Use json tags for field mapping
	})
	if err != nil {
		return err
	}

	return decoder.Decode(request.GetArguments())
}

// stringScalarHook parses JSON scalars sent as strings into booleans and numbers.
// Anything that does not parse is passed through for mapstructure to reject.
func stringScalarHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	switch {
	case t.Kind() == reflect.Bool:
		var result bool
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			return result, nil
		}
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Float64:
		var result json.Number
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			// Let mapstructure handle the number conversion
			return result, nil
		}
	}

	return data, nil
}
