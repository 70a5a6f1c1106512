// Package config loads revsearch settings using Viper from an optional YAML
// file and the environment.
//
// Every key can be overridden with a REVSEARCH_ variable, dots replaced by
// underscores:
//
//	REVSEARCH_SEARCH_ENGINE=elasticsearch
//	REVSEARCH_SEARCH_ADDRESSES=https://node1:9200,https://node2:9200
//
// Credentials are also read from OPENSEARCH_USER and OPENSEARCH_PASSWORD, and
// the Hugging Face token from HF_TOKEN. A .env file is honored through
// LoadEnvFile.
//
// Example YAML:
//
//	search:
//	  engine: opensearch
//	  addresses: ["https://localhost:9200"]
//	  insecure_skip_tls: false
//	  compression: true
//	dataset:
//	  source: hf
//	  name: mteb/amazon_reviews_multi
//	  config: ja
//	  split: train
//	logger:
//	  level: warn
//	  format: text
//	  output: stderr
package config
