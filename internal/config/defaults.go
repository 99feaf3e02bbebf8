package config

import "os"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/pagelens/data/db/scrapes.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/pagelens/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/pagelens/data/indices/vectors"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434/api"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.3-70b-versatile"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.DefaultTopK == 0 {
		cfg.RAG.DefaultTopK = 5
	}
	if cfg.RAG.MaxTopK == 0 {
		cfg.RAG.MaxTopK = 50
	}
	if cfg.RAG.Collection == "" {
		cfg.RAG.Collection = "web_rag"
	}
	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = "pagelens/1.0 (+https://github.com/pagelens/pagelens)"
	}
	if cfg.Scrape.TimeoutSecs == 0 {
		cfg.Scrape.TimeoutSecs = 10
	}
	if cfg.Scrape.MaxBodyBytes == 0 {
		cfg.Scrape.MaxBodyBytes = 10 << 20
	}
	if cfg.Sentiment.MaxParagraphs == 0 {
		cfg.Sentiment.MaxParagraphs = 100
	}
	if cfg.Sentiment.MinParagraphLen == 0 {
		cfg.Sentiment.MinParagraphLen = 10
	}
	if cfg.Sentiment.MaxTextLen == 0 {
		cfg.Sentiment.MaxTextLen = 512
	}
	if cfg.Sentiment.Threshold == 0 {
		cfg.Sentiment.Threshold = 0.2
	}
}
