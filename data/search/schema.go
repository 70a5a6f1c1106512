package search

import "encoding/json"

// DefaultIndexName is the index used when none is given on the command line.
const DefaultIndexName = "amazon_reviews"

// AnalyzerName is the custom Japanese analyzer shared by indexing and querying.
const AnalyzerName = "kuromoji_analyzer"

// Field names of the review mapping.
const (
	FieldID   = "id"
	FieldText = "text"
)

// filter is one named token filter of the analysis chain.
type filter struct {
	name string
	def  map[string]any
}

// analyzerFilters lists the analyzer's token filters in application order.
var analyzerFilters = []filter{
	{"kuromoji_baseform_filter", map[string]any{"type": "kuromoji_baseform"}},
	{"cjk_width_filter", map[string]any{"type": "cjk_width"}},
	{"ja_stop_filter", map[string]any{"type": "stop", "stopwords": "_japanese_"}},
	{"kuromoji_stemmer_filter", map[string]any{"type": "kuromoji_stemmer"}},
	{"lowercase_filter", map[string]any{"type": "lowercase"}},
}

// IndexBody returns the create-index request body: one shard, the kuromoji
// analyzer and the id/text mapping.
func IndexBody() ([]byte, error) {
	filters := make(map[string]any, len(analyzerFilters))
	chain := make([]string, 0, len(analyzerFilters))
	for _, f := range analyzerFilters {
		filters[f.name] = f.def
		chain = append(chain, f.name)
	}

	body := map[string]any{
		"settings": map[string]any{
			"number_of_shards": 1,
			"analysis": map[string]any{
				"filter": filters,
				"analyzer": map[string]any{
					AnalyzerName: map[string]any{
						"type":      "custom",
						"tokenizer": "kuromoji_tokenizer",
						"filter":    chain,
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				FieldID:   map[string]any{"type": "keyword"},
				FieldText: map[string]any{"type": "text", "analyzer": AnalyzerName},
			},
		},
	}
	return json.Marshal(body)
}
