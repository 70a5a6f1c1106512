package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Dataset source kinds
const (
	SourceHuggingFace = "hf"
	SourceJSONLines   = "jsonl"
	SourceParquet     = "parquet"
)

// Dataset describes where review records come from
type Dataset struct {
	Source   string `json:"source" yaml:"source" validate:"omitempty,oneof=hf jsonl parquet"`
	Name     string `json:"name" yaml:"name"`
	Config   string `json:"config" yaml:"config"`
	Split    string `json:"split" yaml:"split"`
	Path     string `json:"path" yaml:"path"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Token    string `json:"-" yaml:"token"`
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
	Limit    int    `json:"limit" yaml:"limit" validate:"gte=0"`
}

// getDatasetConfig reads dataset configuration
func getDatasetConfig(v *viper.Viper) *Dataset {
	return &Dataset{
		Source:   getStringOrDefault(v, "dataset.source", SourceHuggingFace),
		Name:     getStringOrDefault(v, "dataset.name", "mteb/amazon_reviews_multi"),
		Config:   getStringOrDefault(v, "dataset.config", "ja"),
		Split:    getStringOrDefault(v, "dataset.split", "train"),
		Path:     v.GetString("dataset.path"),
		Endpoint: getStringOrDefault(v, "dataset.endpoint", "https://huggingface.co"),
		Token:    v.GetString("dataset.token"),
		CacheDir: getStringOrDefault(v, "dataset.cache_dir", defaultCacheDir()),
		Limit:    getIntOrDefault(v, "dataset.limit", 0),
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "revsearch")
	}
	return filepath.Join(os.TempDir(), "revsearch")
}
