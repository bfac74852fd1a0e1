package normalize

import (
	"embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	anthropicSchema = mustSchema("anthropic.json")
	geminiSchema    = mustSchema("gemini.json")
	openaiSchema    = mustSchema("openai.json")
)

func mustSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(name, string(data))
}

// validateVendorPayload checks the coerced payload against the vendor's
// structural schema. Schemas are strict on missing or mistyped required
// fields and permissive on unknown extras.
func validateVendorPayload(vendor string, schema *jsonschema.Schema, doc map[string]any) error {
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Vendor: vendor, Detail: "structural schema violation", Err: err}
	}
	return nil
}
