package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/chunker"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore/appwrite"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore/memory"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore/sqlite"
	"github.com/vaultdrive/docsearch-mcp/internal/embedder"
	"github.com/vaultdrive/docsearch-mcp/internal/extractor"
	"github.com/vaultdrive/docsearch-mcp/internal/files"
	"github.com/vaultdrive/docsearch-mcp/internal/ingest"
	"github.com/vaultdrive/docsearch-mcp/internal/mcp"
	"github.com/vaultdrive/docsearch-mcp/internal/searcher"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("DocSearch MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", sqlite.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", sqlite.DriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("DocSearch MCP Server v%s starting...", version)

	// Optional .env file; real environment wins
	_ = godotenv.Load()

	deps, err := buildDeps()
	if err != nil {
		log.Fatalf("Failed to wire services: %v", err)
	}

	server := mcp.NewServer(deps)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// buildDeps assembles the document store, embedder, and services from the
// environment.
func buildDeps() (mcp.Deps, error) {
	collections := docstore.Collections{
		DatabaseID: os.Getenv("APPWRITE_DATABASE_ID"),
		Files:      getenvDefault("DOCSEARCH_FILES_COLLECTION_ID", "files"),
		Vectors:    getenvDefault("DOCSEARCH_VECTORS_COLLECTION_ID", "vectors"),
		Bucket:     getenvDefault("DOCSEARCH_BUCKET_ID", "files"),
	}

	docs, blobs, closeStore, err := openBackend(collections)
	if err != nil {
		return mcp.Deps{}, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return mcp.Deps{}, fmt.Errorf("initialize embedder: %w", err)
	}
	log.Printf("Embedding provider: %s (%s, %d dims)", emb.Provider(), emb.Model(), emb.Dimension())

	// Transcription fallback only when a key is available; plain text
	// extraction works without it.
	var transcriber extractor.Transcriber
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		transcriber, err = extractor.NewRemoteTranscriber(key, "")
		if err != nil {
			return mcp.Deps{}, fmt.Errorf("initialize transcriber: %w", err)
		}
	} else {
		log.Println("GEMINI_API_KEY not set, transcription fallback disabled")
	}

	checker := access.NewChecker(docs, collections)
	chunks := chunkstore.New(docs, collections)
	pipeline := ingest.New(checker, docs, blobs, chunks,
		extractor.NewSmart(transcriber), emb, chunker.New(), collections)
	search := searcher.New(checker, chunks, emb)
	fileSvc := files.New(checker, docs, blobs, chunks, collections,
		files.WithInvalidator(search.InvalidateCache))

	return mcp.Deps{
		Ingest:   pipeline,
		Searcher: search,
		Files:    fileSvc,
		Chunks:   chunks,
		Close: func() error {
			emb.Close()
			if closeStore != nil {
				return closeStore()
			}
			return nil
		},
	}, nil
}

// openBackend picks the document store from DOCSEARCH_BACKEND: appwrite,
// sqlite, or memory. Unset picks appwrite when APPWRITE_ENDPOINT is
// present, sqlite otherwise.
func openBackend(collections docstore.Collections) (docstore.DocumentStore, docstore.BlobStore, func() error, error) {
	backend := getenvDefault("DOCSEARCH_BACKEND", "")
	if backend == "" {
		if os.Getenv("APPWRITE_ENDPOINT") != "" {
			backend = "appwrite"
		} else {
			backend = "sqlite"
		}
	}

	switch backend {
	case "appwrite":
		client, err := appwrite.New(appwrite.Config{
			Endpoint:  os.Getenv("APPWRITE_ENDPOINT"),
			ProjectID: os.Getenv("APPWRITE_PROJECT_ID"),
			APIKey:    os.Getenv("APPWRITE_API_KEY"),
		}, collections.DatabaseID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to appwrite: %w", err)
		}
		log.Printf("Backend: appwrite (%s)", os.Getenv("APPWRITE_ENDPOINT"))
		return client, client, nil, nil

	case "sqlite":
		dbPath := os.Getenv("DOCSEARCH_DB_PATH")
		if dbPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, nil, fmt.Errorf("resolve home directory: %w", err)
			}
			dbPath = filepath.Join(home, ".docsearch", "docsearch.db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("create database directory: %w", err)
		}
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		log.Printf("Backend: sqlite (%s, driver %s)", dbPath, sqlite.DriverName)
		return store, store, store.Close, nil

	case "memory":
		store := memory.New()
		log.Println("Backend: memory (data is lost on exit)")
		return store, store, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
