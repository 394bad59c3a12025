// Package engine implements C11: the RPC surface that dispatches the
// fourteen tool names onto C1-C10, owning the orchestration spec §2's
// data-flow diagram describes (chunk creation registers a session and
// best-effort embeds; search fans out to the BM25 + cosine pipeline).
package engine

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/rlm-memory/rlm-memory/internal/chunker"
	"github.com/rlm-memory/rlm-memory/internal/config"
	"github.com/rlm-memory/rlm-memory/internal/embedding"
	"github.com/rlm-memory/rlm-memory/internal/insight"
	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/navigation"
	"github.com/rlm-memory/rlm-memory/internal/retention"
	"github.com/rlm-memory/rlm-memory/internal/search"
	"github.com/rlm-memory/rlm-memory/internal/session"
	"github.com/rlm-memory/rlm-memory/internal/store"
	"github.com/rlm-memory/rlm-memory/internal/vectorstore"
)

// Engine wires every component over a single storage root and exposes the
// fourteen RPC operations as plain Go methods; a thin transport layer
// (stdio, HTTP, whatever the host process uses) would adapt these.
type Engine struct {
	layout   store.Layout
	cfg      config.Config
	chunks   *store.ChunkStore
	sessions *session.Registry
	insights *insight.Store
	retain   *retention.Manager
	search   *search.Engine
	provider embedding.Provider
	vectors  *vectorstore.Store
	log      zerolog.Logger
	cancel   context.CancelFunc
}

// New wires every component rooted at storageDir. Embedding provider
// selection follows RLM_EMBEDDING_PROVIDER (see embedding.NewFromEnv).
func New(storageDir string, logger zerolog.Logger) (*Engine, error) {
	layout := store.NewLayout(storageDir)
	cfg, err := config.Load(layout.ConfigPath())
	if err != nil {
		return nil, err
	}

	provider := embedding.NewFromEnv()
	vstore, err := vectorstore.Open(layout.EmbeddingsPath(), provider.Name(), provider.Dim())
	if err != nil {
		return nil, err
	}

	chunks := store.NewChunkStore(layout)

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		layout:   layout,
		cfg:      cfg,
		chunks:   chunks,
		sessions: session.NewRegistry(layout.SessionsPath(), layout.DomainsPath()),
		insights: insight.NewStore(layout.SessionMemoryPath()),
		retain:   retention.NewManager(chunks, cfg.Retention),
		search:   search.NewEngine(cfg.BM25.K1, cfg.BM25.B, cfg.FusionAlpha),
		provider: provider,
		vectors:  vstore,
		log:      logger,
		cancel:   cancel,
	}

	// Best-effort: a second process sharing this storage root invalidates
	// our frontmatter cache by touching index.json. A watcher failure (no
	// inotify support, fd limits) just means the cache relies on this
	// process's own writes instead, so it is logged, not returned.
	go func() {
		if werr := chunks.WatchIndex(ctx, logger); werr != nil {
			logger.Warn().Err(werr).Msg("index watcher unavailable, disabling cross-process cache invalidation")
		}
	}()

	return e, nil
}

// Close stops the background index watcher. The host process should call
// this on shutdown; it is not required for correctness, only for a clean
// goroutine exit.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
}

// --- Insight memory + status ---

func (e *Engine) Remember(content, category, importance string, tags []string) (model.Insight, error) {
	return e.insights.Remember(content, category, importance, tags)
}

func (e *Engine) Recall(p insight.RecallParams) ([]model.Insight, error) {
	return e.insights.Recall(p)
}

func (e *Engine) Forget(id string) error {
	return e.insights.Forget(id)
}

// Status reports a lightweight health snapshot: chunk/insight counts,
// embedding provider name and dimension, and whether it is available.
type StatusReport struct {
	ChunkCount        int    `json:"chunk_count"`
	InsightCount      int    `json:"insight_count"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingDim      int    `json:"embedding_dim"`
	ProviderAvailable bool   `json:"provider_available"`
	VectorCount       int    `json:"vector_count"`
	VectorsStale      bool   `json:"vectors_stale"`
	TotalContentBytes int64  `json:"total_content_bytes"`
	TotalContentHuman string `json:"total_content_human"`
}

func (e *Engine) Status() (StatusReport, error) {
	chunks, err := e.chunks.All()
	if err != nil {
		return StatusReport{}, err
	}
	insights, err := e.insights.All()
	if err != nil {
		return StatusReport{}, err
	}

	var totalBytes int64
	for _, c := range chunks {
		totalBytes += int64(c.TokensEstimate) * 4
	}

	return StatusReport{
		ChunkCount:        len(chunks),
		InsightCount:      len(insights),
		EmbeddingProvider: e.provider.Name(),
		EmbeddingDim:      e.provider.Dim(),
		ProviderAvailable: e.provider.Dim() > 0,
		VectorCount:       e.vectors.Len(),
		VectorsStale:      e.vectors.Stale(),
		TotalContentBytes: totalBytes,
		TotalContentHuman: humanize.Bytes(uint64(totalBytes)),
	}, nil
}

// --- Chunk creation, reading, searching ---

// CreateChunk is the `chunk` operation: validate/dedup/write via C5,
// register the session via C6, then best-effort embed via C4/C3.
func (e *Engine) CreateChunk(ctx context.Context, p store.CreateParams) (store.CreateResult, error) {
	opID := ulid.Make().String()

	res, err := e.chunks.Create(p)
	if err != nil {
		return store.CreateResult{}, err
	}
	if res.Duplicate {
		return res, nil
	}

	log := e.log.With().Str("op_id", opID).Logger()

	project := res.Chunk.Project
	date := res.Chunk.CreatedAt
	if len(date) >= 10 {
		date = date[:10]
	} else {
		date = time.Now().UTC().Format("2006-01-02")
	}
	sessionID, serr := e.sessions.Register(date, project, res.Chunk.Domain)
	if serr != nil {
		log.Warn().Err(serr).Str("chunk_id", res.Chunk.ID).Msg("session registration failed")
	} else if aerr := e.sessions.AddChunk(sessionID, res.Chunk.ID); aerr != nil {
		log.Warn().Err(aerr).Str("chunk_id", res.Chunk.ID).Msg("session chunk append failed")
	}

	if e.provider.Dim() > 0 {
		body, berr := e.chunks.ReadBody(res.Chunk.ID)
		if berr != nil {
			log.Warn().Err(berr).Str("chunk_id", res.Chunk.ID).Msg("read body for embedding failed")
		} else {
			vec, eerr := e.embedBody(ctx, body)
			if eerr != nil {
				log.Warn().Err(eerr).Str("chunk_id", res.Chunk.ID).Msg("embedding failed, continuing without vector")
			} else if verr := e.vectors.Add(res.Chunk.ID, vec); verr != nil {
				log.Warn().Err(verr).Str("chunk_id", res.Chunk.ID).Msg("persist vector failed")
			}
		}
	}

	return res, nil
}

// embedBody encodes a chunk body for the vector store. Bodies within the
// chunker's max block size are encoded directly; larger bodies are split
// into markdown-aware blocks and mean-pooled into a single vector, so a
// long externalized conversation still gets one representative embedding
// rather than being truncated or rejected by the provider.
func (e *Engine) embedBody(ctx context.Context, body string) (embedding.Vector, error) {
	blocks := chunker.EmbeddingBlocks(body, chunker.DefaultOptions())
	if len(blocks) <= 1 {
		return embedding.EncodeOne(ctx, e.provider, body)
	}

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	rows, err := e.provider.Encode(ctx, texts)
	if err != nil {
		return nil, err
	}
	return meanPool(rows, e.provider.Dim()), nil
}

func meanPool(rows []embedding.Vector, dim int) embedding.Vector {
	out := make(embedding.Vector, dim)
	if len(rows) == 0 {
		return out
	}
	for _, row := range rows {
		for i := 0; i < dim && i < len(row); i++ {
			out[i] += row[i]
		}
	}
	for i := range out {
		out[i] /= float32(len(rows))
	}
	return out
}

// Peek auto-restores from archive via the retention manager before
// reading, per spec's "this is a normal code path" rule.
func (e *Engine) Peek(id string, start, end int) (string, int, error) {
	return e.chunks.Peek(id, start, end, e.retain.Restore)
}

func (e *Engine) Grep(pattern string, filters navigation.Filters, limit int) ([]navigation.Match, error) {
	bodies, err := e.activeBodies(filters)
	if err != nil {
		return nil, err
	}
	return navigation.Grep(pattern, bodies, limit)
}

func (e *Engine) GrepFuzzy(pattern string, threshold float64, filters navigation.Filters, limit int) ([]navigation.Match, error) {
	bodies, err := e.activeBodies(filters)
	if err != nil {
		return nil, err
	}
	return navigation.GrepFuzzy(pattern, threshold, bodies, limit), nil
}

func (e *Engine) activeBodies(filters navigation.Filters) ([]navigation.ChunkBody, error) {
	chunks, err := e.chunks.List(store.ListParams{Project: filters.Project, Domain: filters.Domain})
	if err != nil {
		return nil, err
	}
	bodies := make([]navigation.ChunkBody, 0, len(chunks))
	for _, c := range chunks {
		body, berr := e.chunks.ReadBody(c.ID)
		if berr != nil {
			continue
		}
		bodies = append(bodies, navigation.ChunkBody{Chunk: c, Content: body})
	}
	return bodies, nil
}

func (e *Engine) ListChunks(p store.ListParams) ([]model.Chunk, error) {
	return e.chunks.List(p)
}

func (e *Engine) Search(ctx context.Context, query string, limit int, filters search.Filters, includeInsights bool) ([]search.Result, error) {
	chunks, err := e.chunks.All()
	if err != nil {
		return nil, err
	}
	insights, err := e.insights.All()
	if err != nil {
		return nil, err
	}

	bodies := make(map[string]string, len(chunks))
	for _, c := range chunks {
		body, berr := e.chunks.ReadBody(c.ID)
		if berr != nil {
			continue
		}
		bodies[c.ID] = body
	}

	return e.search.Query(ctx, query, limit, filters, includeInsights, chunks, bodies, insights, e.provider, e.vectors)
}

// --- Browsing ---

func (e *Engine) Sessions(project, domain string, limit int) ([]model.Session, error) {
	return e.sessions.List(project, domain, limit)
}

func (e *Engine) Domains() ([]string, error) {
	return e.sessions.ListDomains()
}

// --- Lifecycle management ---

func (e *Engine) RetentionPreview() (retention.Preview, error) {
	return e.retain.Preview(time.Now().UTC())
}

func (e *Engine) RetentionRun(archive, purge bool) (retention.RunResult, error) {
	return e.retain.Run(archive, purge, time.Now().UTC())
}

func (e *Engine) Restore(id string) error {
	return e.retain.Restore(id)
}

// NewDefaultLogger builds the zerolog logger the core engine writes its
// internal diagnostics through; the host process supplies its own for
// user-facing output.
func NewDefaultLogger(w zerolog.ConsoleWriter) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
