package llmpipeline

import "fmt"

// StrategyKind identifies which parsing strategy an OutputStrategy applies.
// Go has no sum types, so OutputStrategy pairs a Kind with the fields each
// kind actually uses; callers should treat the unused fields as zero.
type StrategyKind int

const (
	// StrategyLossy never fails: it tries a JSON parse, falls back to
	// extracting an embedded JSON candidate, and finally falls back to
	// the cleaned text itself as a JSON string value.
	StrategyLossy StrategyKind = iota
	// StrategyJSON requires (eventually, after repair/auto-completion)
	// a valid JSON document.
	StrategyJSON
	// StrategyStringList parses a list of strings from varied formats
	// (JSON array, markdown list, comma-separated, ...).
	StrategyStringList
	// StrategyXMLTag extracts the content of a single named XML-like tag.
	StrategyXMLTag
	// StrategyChoice matches the response against a fixed set of
	// allowed choices.
	StrategyChoice
	// StrategyNumber parses a single number from the response.
	StrategyNumber
	// StrategyNumberInRange parses a single number and rejects it if
	// outside [Min, Max].
	StrategyNumberInRange
	// StrategyText extracts cleaned prose, stripping filler preambles.
	StrategyText
	// StrategyYAML parses the response as a YAML document.
	StrategyYAML
	// StrategyCustom delegates to a caller-supplied parse function.
	StrategyCustom
)

// CustomParseFunc is the signature required by StrategyCustom.
type CustomParseFunc func(cleaned string) (any, error)

// OutputStrategy selects how a LLMCall turns raw model text into a
// structured Value.
type OutputStrategy struct {
	Kind StrategyKind

	// XMLTagName is used by StrategyXMLTag.
	XMLTagName string
	// Choices is used by StrategyChoice.
	Choices []string
	// Min and Max are used by StrategyNumberInRange.
	Min, Max float64
	// Custom is used by StrategyCustom.
	Custom CustomParseFunc
}

// Lossy returns the default, never-fails output strategy.
func Lossy() OutputStrategy { return OutputStrategy{Kind: StrategyLossy} }

// JSON returns a strategy that requires a JSON document.
func JSON() OutputStrategy { return OutputStrategy{Kind: StrategyJSON} }

// StringList returns a strategy that parses a list of strings.
func StringList() OutputStrategy { return OutputStrategy{Kind: StrategyStringList} }

// XMLTag returns a strategy that extracts the content of the named tag.
func XMLTag(name string) OutputStrategy {
	return OutputStrategy{Kind: StrategyXMLTag, XMLTagName: name}
}

// Choice returns a strategy that matches the response against choices.
func Choice(choices ...string) OutputStrategy {
	return OutputStrategy{Kind: StrategyChoice, Choices: choices}
}

// Number returns a strategy that parses a single number.
func Number() OutputStrategy { return OutputStrategy{Kind: StrategyNumber} }

// NumberInRange returns a strategy that parses a single number within
// [min, max].
func NumberInRange(min, max float64) OutputStrategy {
	return OutputStrategy{Kind: StrategyNumberInRange, Min: min, Max: max}
}

// Text returns a strategy that extracts cleaned prose.
func Text() OutputStrategy { return OutputStrategy{Kind: StrategyText} }

// YAML returns a strategy that parses the response as YAML.
func YAML() OutputStrategy { return OutputStrategy{Kind: StrategyYAML} }

// Custom returns a strategy that delegates to fn.
func Custom(fn CustomParseFunc) OutputStrategy {
	return OutputStrategy{Kind: StrategyCustom, Custom: fn}
}

func (s OutputStrategy) String() string {
	switch s.Kind {
	case StrategyLossy:
		return "lossy"
	case StrategyJSON:
		return "json"
	case StrategyStringList:
		return "string_list"
	case StrategyXMLTag:
		return fmt.Sprintf("xml_tag(%s)", s.XMLTagName)
	case StrategyChoice:
		return fmt.Sprintf("choice(%v)", s.Choices)
	case StrategyNumber:
		return "number"
	case StrategyNumberInRange:
		return fmt.Sprintf("number_in_range(%g,%g)", s.Min, s.Max)
	case StrategyText:
		return "text"
	case StrategyYAML:
		return "yaml"
	case StrategyCustom:
		return "custom"
	default:
		return "unknown"
	}
}
