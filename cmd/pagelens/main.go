// Package main is the pagelens CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/embedding"
	"github.com/pagelens/pagelens/internal/keyword"
	"github.com/pagelens/pagelens/internal/llm"
	"github.com/pagelens/pagelens/internal/models"
	"github.com/pagelens/pagelens/internal/rag"
	"github.com/pagelens/pagelens/internal/scrape"
	"github.com/pagelens/pagelens/internal/sentiment"
	"github.com/pagelens/pagelens/internal/server"
	"github.com/pagelens/pagelens/internal/storage"
	"github.com/pagelens/pagelens/internal/vector"
	"github.com/pagelens/pagelens/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pagelens/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so that running from the project
// dir uses the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "scrape":
		runScrape(false)
	case "index":
		runScrape(true)
	case "ask":
		runAsk()
	case "sources":
		runSources()
	case "delete-source":
		runDeleteSource()
	case "clear":
		runClear()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("pagelens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds everything the server needs, with a single Close.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorStore  *vector.MemoryStore
	KeywordIndex *keyword.Index
	Generator    llm.Client
	Engine       *rag.Engine
	Scraper      *scrape.Scraper
	Sentiment    *sentiment.Analyzer
}

// Close closes components in reverse dependency order.
func (c *Components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.VectorStore != nil {
		_ = c.VectorStore.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedOpts := []embedding.OllamaOption{
		embedding.WithCacheSize(cfg.Embedding.CacheSize),
	}
	if debug {
		embedOpts = append(embedOpts, embedding.WithLogger(logger))
	}
	embedder, err := embedding.NewOllamaEmbedder(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.Dimensions,
		embedOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	vectorStore, err := vector.NewMemoryStore(cfg.RAG.Collection, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vectorStore.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Storage.VectorIndexPath),
				zap.Error(loadErr))
		}
	}

	keywordIndex, err := keyword.NewIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	genOpts := []llm.GroqOption{
		llm.WithSampling(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSecs) * time.Second),
	}
	if debug {
		genOpts = append(genOpts, llm.WithLogger(logger))
	}
	generator := llm.NewGroqClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, genOpts...)

	engineOpts := []rag.Option{
		rag.WithTopK(cfg.RAG.DefaultTopK, cfg.RAG.MaxTopK),
	}
	if debug {
		engineOpts = append(engineOpts, rag.WithLogger(logger))
	}
	engine := rag.NewEngine(
		vectorStore,
		embedder,
		generator,
		rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		engineOpts...,
	)

	scrapeOpts := []scrape.Option{}
	if debug {
		scrapeOpts = append(scrapeOpts, scrape.WithLogger(logger))
	}
	scraper := scrape.NewScraper(
		cfg.Scrape.UserAgent,
		time.Duration(cfg.Scrape.TimeoutSecs)*time.Second,
		cfg.Scrape.MaxBodyBytes,
		scrapeOpts...,
	)

	analyzer := sentiment.NewAnalyzer(
		sentiment.NewLLMClassifier(generator),
		sentiment.WithLimits(cfg.Sentiment.MaxParagraphs, cfg.Sentiment.MinParagraphLen, cfg.Sentiment.MaxTextLen),
		sentiment.WithThreshold(cfg.Sentiment.Threshold),
	)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		VectorStore:  vectorStore,
		KeywordIndex: keywordIndex,
		Generator:    generator,
		Engine:       engine,
		Scraper:      scraper,
		Sentiment:    analyzer,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Engine,
		components.Scraper,
		components.Storage,
		components.KeywordIndex,
		components.Sentiment,
		components.Generator,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorStore.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Storage.VectorIndexPath),
				zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runScrape handles both "scrape" (store only) and "index" (store + RAG index).
func runScrape(index bool) {
	name := "scrape"
	endpoint := "/api/v1/scrape"
	if index {
		name = "index"
		endpoint = "/api/v1/scrape-and-index"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pagelens %s [flags] <url>\n", name)
		os.Exit(1)
	}
	body, _ := json.Marshal(map[string]string{"url": fs.Arg(0)})
	result, err := postJSON(*serverURL+endpoint, body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
		os.Exit(1)
	}
	printJSON(result)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 0, "number of chunks to retrieve (0 = server default)")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: pagelens ask [flags] <question>")
		os.Exit(1)
	}
	body, _ := json.Marshal(models.AskRequest{Question: question, TopK: *topK})
	raw, err := postJSON(*serverURL+"/api/v1/query", body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ask failed: %v\n", err)
		os.Exit(1)
	}

	var answer models.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
		}
	}
}

func runSources() {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	result, err := getJSON(*serverURL + "/api/v1/sources")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sources failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runDeleteSource() {
	fs := flag.NewFlagSet("delete-source", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pagelens delete-source [flags] <url>")
		os.Exit(1)
	}
	target := *serverURL + "/api/v1/sources?url=" + url.QueryEscape(fs.Arg(0))
	result, err := deleteJSON(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "delete-source failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	result, err := deleteJSON(*serverURL + "/api/v1/index")
	if err != nil {
		fmt.Fprintf(os.Stderr, "clear failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	result, err := getJSON(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "status failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func postJSON(target string, body []byte) ([]byte, error) {
	resp, err := http.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return readResponse(resp)
}

func getJSON(target string) ([]byte, error) {
	resp, err := http.Get(target)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return readResponse(resp)
}

func deleteJSON(target string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodDelete, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func printJSON(raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func printUsage() {
	fmt.Println(`pagelens - web scraping with RAG question answering

Usage:
  pagelens server [flags]                Start the HTTP server
  pagelens scrape [flags] <url>          Scrape a page and store it
  pagelens index [flags] <url>           Scrape, store and index a page
  pagelens ask [flags] <question>        Ask a question about indexed content
  pagelens sources [flags]               List indexed sources
  pagelens delete-source [flags] <url>   Remove an indexed source
  pagelens clear [flags]                 Clear all indexed content
  pagelens status [flags]                Show server status
  pagelens version                       Show version

Flags:
  -config <path>   config file path (server only, default ` + defaultConfigPath + `)
  -server <url>    server URL for client commands (default http://localhost:8080)
  -debug           enable debug logging (server only)`)
}
