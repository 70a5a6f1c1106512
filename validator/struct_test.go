package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Engine    string   `yaml:"engine" validate:"required,oneof=opensearch elasticsearch"`
	Addresses []string `yaml:"addresses" validate:"required,min=1,dive,url"`
	Limit     int      `yaml:"limit" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sample{Engine: "opensearch", Addresses: []string{"https://localhost:9200"}}, "search"))

	err := ValidateStruct(&sample{Engine: "solr", Addresses: []string{"not a url"}, Limit: -1}, "search")
	require.Error(t, err)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, `unsupported search.engine "solr" (one of: opensearch, elasticsearch)`, fe["search.engine"])
	assert.Equal(t, `search.addresses[0] must be a URL, got "not a url"`, fe["search.addresses[0]"])
	assert.Equal(t, "search.limit must be greater than or equal to 0", fe["search.limit"])
	assert.Contains(t, err.Error(), "; ")
}

func TestValidateStruct_Required(t *testing.T) {
	err := ValidateStruct(&sample{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine is required")
	assert.Contains(t, err.Error(), "addresses is required")
}
