package summarizer

import "github.com/tidwall/gjson"

const summaryField = "summary_text"

// shapeMatcher extracts a summary from one accepted success payload shape.
type shapeMatcher func(body gjson.Result) (string, bool)

// summaryShapes is tried in order; the first match wins.
//
//nolint:gochecknoglobals // Immutable strategy chain.
var summaryShapes = []shapeMatcher{
	firstElementSummary,
	objectSummary,
	bareString,
}

// [{"summary_text": "..."}]
func firstElementSummary(body gjson.Result) (string, bool) {
	if !body.IsArray() {
		return "", false
	}
	return stringField(body.Get("0." + summaryField))
}

// {"summary_text": "..."}
func objectSummary(body gjson.Result) (string, bool) {
	if !body.IsObject() {
		return "", false
	}
	return stringField(body.Get(summaryField))
}

// "..."
func bareString(body gjson.Result) (string, bool) {
	return stringField(body)
}

func stringField(v gjson.Result) (string, bool) {
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

func extractSummary(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	parsed := gjson.ParseBytes(body)
	for _, match := range summaryShapes {
		if summary, ok := match(parsed); ok {
			return summary, true
		}
	}

	return "", false
}
