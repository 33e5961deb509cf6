package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sourcelens-dev/sourcelens/internal/config"
	"github.com/sourcelens-dev/sourcelens/internal/embed"
	"github.com/sourcelens-dev/sourcelens/internal/search"
	"github.com/sourcelens-dev/sourcelens/internal/store"
)

// projectState holds the opened stores and search engine for one indexed
// project root, kept warm in memory so repeat searches skip store init.
type projectState struct {
	rootPath string
	loadedAt time.Time
	lastUsed time.Time

	metadata store.MetadataStore
	bm25     store.BM25Index
	vector   store.VectorStore
	engine   *search.Engine
}

// Close releases the stores backing a project. Stores may be nil for
// projectStates built directly in tests, so every Close is nil-checked.
func (p *projectState) Close() error {
	var firstErr error
	if p.bm25 != nil {
		if err := p.bm25.Close(); err != nil {
			firstErr = err
		}
	}
	if p.vector != nil {
		if err := p.vector.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.metadata != nil {
		if err := p.metadata.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Daemon keeps an embedder and a bounded set of project search engines
// loaded in memory, serving RPC requests from Server over a Unix socket.
type Daemon struct {
	cfg      Config
	embedder embed.Embedder
	server   *Server
	pidFile  *PIDFile

	mu        sync.RWMutex
	projects  map[string]*projectState
	started   time.Time
	compactor *CompactionManager
}

// Option configures a Daemon at construction time.
type Option func(*Daemon)

// WithEmbedder overrides the daemon's embedder. Tests use this to inject a
// mock embedder and skip the real Ollama/MLX/Hugot startup cost; production
// callers can use it to pin a specific provider instead of reading config.
func WithEmbedder(e embed.Embedder) Option {
	return func(d *Daemon) {
		d.embedder = e
	}
}

// NewDaemon creates a daemon from cfg, validating it and wiring the Unix
// socket server. It does not open any project stores or start listening;
// call Start for that.
func NewDaemon(cfg Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	server, err := NewServer(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		server:   server,
		pidFile:  NewPIDFile(cfg.PIDPath),
		projects: make(map[string]*projectState),
	}
	for _, opt := range opts {
		opt(d)
	}
	server.SetHandler(d)
	d.compactor = NewCompactionManager(d, config.NewConfig().Compaction)

	return d, nil
}

// Start runs the daemon until ctx is cancelled or a termination signal
// arrives. It writes the PID file, cleans up any stale socket left behind
// by a crashed prior run, and blocks serving requests.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.cfg.EnsureDir(); err != nil {
		return fmt.Errorf("failed to prepare daemon directories: %w", err)
	}

	if d.pidFile.IsRunning() {
		return fmt.Errorf("daemon already running (pid file %s)", d.cfg.PIDPath)
	}
	if err := d.pidFile.Write(); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	defer func() {
		if err := d.pidFile.Remove(); err != nil {
			slog.Warn("failed to remove pid file", slog.String("error", err.Error()))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// The embedder isn't built until Start rather than NewDaemon: it may
	// dial Ollama/MLX, and that network cost belongs to the blocking
	// lifecycle call, not construction. WithEmbedder (tests, or a caller
	// with its own provider choice) skips this.
	if d.embedder == nil {
		embedder, err := defaultEmbedder(sigCtx)
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %w", err)
		}
		d.embedder = embedder
	}

	// A stale socket from a crashed prior run would otherwise fail the
	// listen below with "address already in use"; Server.ListenAndServe
	// removes it, but only once it knows the path, so we don't duplicate
	// that here.
	d.started = time.Now()

	d.compactor.Start(sigCtx)
	go d.evictionLoop(sigCtx)

	slog.Info("daemon starting", slog.String("socket", d.cfg.SocketPath))
	err := d.server.ListenAndServe(sigCtx)

	d.compactor.Stop()
	d.cleanup()
	return err
}

// evictionLoop periodically evicts LRU projects once MaxProjects is
// exceeded, so a long-running daemon doesn't accumulate an unbounded
// number of open BM25/vector stores across many repos.
func (d *Daemon) evictionLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			d.evictLRU()
			d.mu.Unlock()
		}
	}
}

// evictLRU closes and removes the least-recently-used project once the
// loaded set exceeds cfg.MaxProjects. Caller must hold d.mu.
func (d *Daemon) evictLRU() {
	if len(d.projects) < d.cfg.MaxProjects {
		return
	}

	var oldestPath string
	var oldest time.Time
	for path, p := range d.projects {
		if oldestPath == "" || p.lastUsed.Before(oldest) {
			oldestPath = path
			oldest = p.lastUsed
		}
	}
	if oldestPath == "" {
		return
	}

	if err := d.projects[oldestPath].Close(); err != nil {
		slog.Warn("failed to close evicted project", slog.String("root", oldestPath), slog.String("error", err.Error()))
	}
	delete(d.projects, oldestPath)
}

// cleanup closes every open project and releases the embedder, run once at
// shutdown so a restarted daemon doesn't inherit leaked file handles.
func (d *Daemon) cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, p := range d.projects {
		if err := p.Close(); err != nil {
			slog.Warn("failed to close project on shutdown", slog.String("root", path), slog.String("error", err.Error()))
		}
	}
	d.projects = make(map[string]*projectState)

	if d.embedder != nil {
		if err := d.embedder.Close(); err != nil {
			slog.Warn("failed to close embedder", slog.String("error", err.Error()))
		}
		d.embedder = nil
	}
}

// HandleSearch implements RequestHandler. It loads (or reuses) the project
// at params.RootPath and runs a hybrid search against it.
func (d *Daemon) HandleSearch(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	p, err := d.loadProject(ctx, params.RootPath)
	if err != nil {
		return nil, err
	}

	d.compactor.InterruptCompaction(params.RootPath)
	defer d.compactor.OnSearchComplete(params.RootPath)

	opts := search.SearchOptions{
		Limit:    params.Limit,
		Filter:   params.Filter,
		Language: params.Language,
		Scopes:   params.Scopes,
		BM25Only: params.BM25Only,
		Explain:  params.Explain,
	}

	results, err := p.engine.Search(ctx, params.Query, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return toSearchResults(results), nil
}

// loadProject returns the cached projectState for rootPath, opening its
// stores on first use. Mirrors the CLI's own local-search store setup (see
// cmd/sourcelens/cmd/search.go's runLocalSearch) so daemon and non-daemon
// search paths agree on index layout.
func (d *Daemon) loadProject(ctx context.Context, rootPath string) (*projectState, error) {
	d.mu.Lock()
	if p, ok := d.projects[rootPath]; ok {
		p.lastUsed = time.Now()
		d.mu.Unlock()
		return p, nil
	}
	d.mu.Unlock()

	dataDir := filepath.Join(rootPath, ".sourcelens")
	metadataPath := filepath.Join(dataDir, "metadata.db")
	if _, err := os.Stat(metadataPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found for %s: run 'sourcelens index' first", rootPath)
	}

	cfg, err := config.Load(rootPath)
	if err != nil {
		cfg = config.NewConfig()
	}

	metadata, err := store.NewSQLiteStore(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}

	bm25BasePath := filepath.Join(dataDir, "bm25")
	bm25Config := store.DefaultBM25Config()
	bm25, err := store.NewBM25IndexWithBackend(bm25BasePath, bm25Config, cfg.Search.BM25Backend)
	if err != nil {
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to open BM25 index: %w", err)
	}

	embedder := d.embedder
	dimensions := embedder.Dimensions()
	vectorConfig := store.DefaultVectorStoreConfig(dimensions)
	vector, err := store.NewHNSWStore(vectorConfig)
	if err != nil {
		_ = bm25.Close()
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	vectorPath := filepath.Join(dataDir, "vectors.hnsw")
	if _, err := os.Stat(vectorPath); err == nil {
		if loadErr := vector.Load(vectorPath); loadErr != nil {
			slog.Debug("vector_load_failed", slog.String("error", loadErr.Error()))
		}
	}

	engineConfig := search.DefaultConfig()
	if cfg.Search.MaxResults > 0 {
		engineConfig.DefaultLimit = cfg.Search.MaxResults
	}
	if cfg.Search.BM25Weight > 0 || cfg.Search.SemanticWeight > 0 {
		engineConfig.DefaultWeights = search.Weights{
			BM25:     cfg.Search.BM25Weight,
			Semantic: cfg.Search.SemanticWeight,
		}
	}

	engine, err := search.NewEngine(bm25, vector, embedder, metadata, engineConfig,
		search.WithMultiQuerySearch(search.NewPatternDecomposer()))
	if err != nil {
		_ = vector.Close()
		_ = bm25.Close()
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to create search engine: %w", err)
	}

	p := &projectState{
		rootPath: rootPath,
		loadedAt: time.Now(),
		lastUsed: time.Now(),
		metadata: metadata,
		bm25:     bm25,
		vector:   vector,
		engine:   engine,
	}

	d.mu.Lock()
	d.projects[rootPath] = p
	d.evictLRU()
	d.mu.Unlock()

	return p, nil
}

// GetStatus implements RequestHandler.
func (d *Daemon) GetStatus() StatusResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := StatusResult{
		Running:        true,
		PID:            os.Getpid(),
		Uptime:         time.Since(d.started).Round(time.Second).String(),
		ProjectsLoaded: len(d.projects),
	}

	if d.embedder == nil {
		status.EmbedderType = "unavailable"
		status.EmbedderStatus = "unavailable"
		return status
	}

	status.EmbedderType = d.embedder.ModelName()
	status.EmbedderStatus = "ready"
	return status
}

// defaultEmbedder builds the embedder shared by every project the daemon
// loads, using the same provider auto-detection (MLX → Ollama → static
// fallback) the CLI's own local search path uses; see runLocalSearch in
// cmd/sourcelens/cmd/search.go. The daemon has no single project root at
// startup, so this reads only the global embeddings defaults rather than
// any one project's config.yaml.
func defaultEmbedder(ctx context.Context) (embed.Embedder, error) {
	cfg := config.NewConfig()
	embed.SetMLXConfig(embed.MLXServerConfig{
		Endpoint: cfg.Embeddings.MLXEndpoint,
		Model:    cfg.Embeddings.MLXModel,
	})
	provider := embed.ParseProvider(cfg.Embeddings.Provider)
	return embed.NewEmbedder(ctx, provider, cfg.Embeddings.Model)
}

// toSearchResults converts engine search hits to the daemon's wire format.
func toSearchResults(results []*search.SearchResult) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for i, r := range results {
		sr := SearchResult{
			Score:     r.Score,
			BM25Score: r.BM25Score,
			VecScore:  r.VecScore,
			BM25Rank:  r.BM25Rank,
			VecRank:   r.VecRank,
		}
		if r.Chunk != nil {
			sr.FilePath = r.Chunk.FilePath
			sr.StartLine = r.Chunk.StartLine
			sr.EndLine = r.Chunk.EndLine
			sr.Content = r.Chunk.Content
			sr.Language = r.Chunk.Language
		}
		if i == 0 && r.Explain != nil {
			sr.Explain = toExplainData(r.Explain)
		}
		out = append(out, sr)
	}
	return out
}

// toExplainData converts the engine's explain payload to the daemon's wire
// format; the two types carry the same fields but diverge on Weights (a
// single struct on the engine side, flattened to two floats over JSON).
func toExplainData(e *search.ExplainData) *ExplainData {
	return &ExplainData{
		Query:                e.Query,
		BM25ResultCount:      e.BM25ResultCount,
		VectorResultCount:    e.VectorResultCount,
		BM25Weight:           e.Weights.BM25,
		SemanticWeight:       e.Weights.Semantic,
		RRFConstant:          e.RRFConstant,
		BM25Only:             e.BM25Only,
		DimensionMismatch:    e.DimensionMismatch,
		MultiQueryDecomposed: e.MultiQueryDecomposed,
		SubQueries:           e.SubQueries,
	}
}
