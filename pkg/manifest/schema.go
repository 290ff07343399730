package manifest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema validates the JSON manifest form before decoding, so
// typos in field names or types fail loudly instead of silently
// producing empty entries.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "artifacts": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["url"],
        "additionalProperties": false,
        "properties": {
          "url": {"type": "string", "minLength": 1},
          "checksum_url": {"type": "string"},
          "algorithm": {"type": "string", "enum": ["sha256", "sha512"]},
          "install_path": {"type": "string"},
          "mode": {"type": "string", "pattern": "^0?[0-7]{3,4}$"},
          "signature_url": {"type": "string"},
          "keyring": {"type": "string"},
          "post_install": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  },
  "additionalProperties": false
}`

func validateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	var msgs []string
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
