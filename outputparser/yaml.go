package outputparser

import (
	"gopkg.in/yaml.v3"
)

// ParseYAML parses response as a YAML document into dst. Strategies: a
// direct YAML parse of the preprocessed text, extraction from a ```yaml
// code block, then extraction from any fenced code block tried as YAML.
// This supplements the strategies the distilled spec carried over from
// the reference implementation's feature-gated yaml support.
func ParseYAML(response string, dst any) error {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return errEmptyResponse()
	}

	if err := yaml.Unmarshal([]byte(cleaned), dst); err == nil {
		return nil
	}

	if block, ok := ExtractCodeBlockFor(cleaned, "yaml"); ok {
		if err := yaml.Unmarshal([]byte(block), dst); err == nil {
			return nil
		}
	}

	if _, block, ok := ExtractCodeBlock(cleaned); ok {
		if err := yaml.Unmarshal([]byte(block), dst); err == nil {
			return nil
		}
	}

	return errUnparseable("YAML", cleaned)
}
