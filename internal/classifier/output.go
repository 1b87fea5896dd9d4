package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats schema validation messages.
var printer = message.NewPrinter(language.English)

// outputSchema pairs the schema text sent to the backend with its compiled
// form.
type outputSchema struct {
	raw      string
	compiled *jsonschema.Schema
}

func mustCompileSchema(name, raw string) outputSchema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return outputSchema{raw: raw, compiled: sch}
}

// decode unwraps the structured payload from raw backend output, validates
// it and decodes it into out.
func (s outputSchema) decode(raw string, out any) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: not JSON: %s", ErrUnexpectedOutput, preview(raw))
	}
	payload := structuredPayload(doc)

	if err := s.compiled.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrUnexpectedOutput, strings.Join(schemaErrors(err), "; "), previewValue(payload))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}
	return nil
}

// structuredPayload returns result.structured_output, then
// structured_output, then the document itself.
func structuredPayload(doc any) any {
	root, ok := doc.(map[string]any)
	if !ok {
		return doc
	}
	if result, ok := root["result"].(map[string]any); ok {
		if so, ok := result["structured_output"]; ok && so != nil {
			return so
		}
	}
	if so, ok := root["structured_output"]; ok && so != nil {
		return so
	}
	return doc
}

func schemaErrors(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

func previewValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return preview(string(b))
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
