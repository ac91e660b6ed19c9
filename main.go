package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go-rag-server/config"
	"go-rag-server/docparse"
	"go-rag-server/llm"
	"go-rag-server/logger"
	"go-rag-server/rag"
	"go-rag-server/watch"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ragserver",
		Short:         "Minimal retrieval-augmented generation server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML or TOML config file")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env.local", ".env"}, "env files to load, first wins")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(opts), newRetrieveCmd(opts))
	return cmd
}

func (o *rootOptions) load() (*config.AppConfig, error) {
	if err := config.LoadEnvFiles(o.envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.SetVerbose(o.verbose || cfg.Verbose)
	return cfg, nil
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr, watchDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serves /ingest, /query and /generate (also under /api) plus the
upload endpoints. Without generation credentials the server still ingests
and retrieves; generation endpoints answer "not configured".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if watchDir != "" {
				cfg.Watch.Dir = watchDir
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory to auto-ingest documents from")
	return cmd
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	srv, err := NewServer(cfg, generator)
	if err != nil {
		return err
	}

	if cfg.Watch.Dir != "" {
		w := watch.New(cfg.Watch.Dir, cfg.WatchDebounce(), srv.ingest)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped: %v", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running on %s", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newGenerator returns nil, without error, when no credentials are configured.
func newGenerator(ctx context.Context, cfg *config.AppConfig) (rag.Generator, error) {
	client, err := llm.New(ctx, cfg.LLMClientConfig())
	if errors.Is(err, llm.ErrMissingCredentials) {
		logger.Warn("no credentials for %s; generation endpoints are disabled", cfg.LLM.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("generation via %s (%s)", cfg.LLM.Provider, client.Model())
	return client, nil
}

type retrieveResult struct {
	Rank    int     `json:"rank"`
	ChunkID string  `json:"chunkId"`
	DocName string  `json:"docName"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

func newRetrieveCmd(root *rootOptions) *cobra.Command {
	var (
		files  []string
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "retrieve [question]",
		Short: "Rank chunks of local files against a question",
		Long: `Ingests the given files into a fresh in-memory index and prints the
best matching chunks with their scores. No generation is performed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top-k") {
				topK = cfg.Retrieval.TopK
			}

			results, err := retrieveFiles(cfg, files, args[0], topK)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			for _, r := range results {
				cmd.Printf("[%d] %s (score %.4f)\n%s\n\n", r.Rank, r.ChunkID, r.Score, r.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "text, markdown or PDF file to index (repeatable)")
	cmd.Flags().IntVarP(&topK, "top-k", "k", rag.DefaultTopK, "number of chunks to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func retrieveFiles(cfg *config.AppConfig, files []string, question string, topK int) ([]retrieveResult, error) {
	srv, err := NewServer(cfg, nil)
	if err != nil {
		return nil, err
	}
	docs := make([]rag.Document, 0, len(files))
	for _, f := range files {
		doc, err := docparse.ParseFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if _, err := srv.ingest.Ingest(docs); err != nil {
		return nil, err
	}

	scored, err := srv.retriever.Retrieve(question, topK)
	if err != nil {
		return nil, err
	}
	results := make([]retrieveResult, len(scored))
	for i, sc := range scored {
		results[i] = retrieveResult{
			Rank:    i + 1,
			ChunkID: sc.Chunk.ID,
			DocName: sc.Chunk.DocumentName,
			Score:   sc.Score,
			Text:    sc.Chunk.Text,
		}
	}
	return results, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
