// Package configbinder binds free-form property maps from the YAML configuration
// onto typed component configuration structs.
package configbinder

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes a property map into the target struct using mapstructure.
// Binding follows the "yaml" tag and tolerates weakly typed input, so numeric
// values written as strings in the configuration still decode.
func Bind(properties map[string]interface{}, target interface{}) error {
	if len(properties) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(properties); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	return nil
}
