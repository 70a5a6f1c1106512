package search

import "encoding/json"

// MatchQueryBody builds a match query on the text field analyzed with the
// same analyzer the index uses.
func MatchQueryBody(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"match": map[string]any{
				FieldText: map[string]any{
					"query":    text,
					"analyzer": AnalyzerName,
				},
			},
		},
	}
	return json.Marshal(body)
}
