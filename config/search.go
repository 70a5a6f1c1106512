package config

import (
	"time"

	"github.com/spf13/viper"
)

// Search engine connection settings
type Search struct {
	Engine    string   `json:"engine" yaml:"engine" validate:"required,oneof=opensearch elasticsearch"`
	Addresses []string `json:"addresses" yaml:"addresses" validate:"required,min=1,dive,url"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"-" yaml:"password"`
	// InsecureSkipTLS disables server certificate verification. Opt-in only.
	InsecureSkipTLS bool          `json:"insecure_skip_tls" yaml:"insecure_skip_tls"`
	Compression     bool          `json:"compression" yaml:"compression"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	IndexName       string        `json:"index_name" yaml:"index_name"`
}

const (
	DefaultEngine    = "opensearch"
	DefaultAddress   = "https://localhost:9200"
	DefaultIndexName = "amazon_reviews"
)

// getSearchConfig reads search engine configuration
func getSearchConfig(v *viper.Viper) *Search {
	return &Search{
		Engine:          getStringOrDefault(v, "search.engine", DefaultEngine),
		Addresses:       getStringSliceOrDefault(v, "search.addresses", []string{DefaultAddress}),
		Username:        v.GetString("search.username"),
		Password:        v.GetString("search.password"),
		InsecureSkipTLS: getBoolOrDefault(v, "search.insecure_skip_tls", false),
		Compression:     getBoolOrDefault(v, "search.compression", true),
		Timeout:         getDurationOrDefault(v, "search.timeout", 0),
		IndexName:       getStringOrDefault(v, "search.index_name", DefaultIndexName),
	}
}
