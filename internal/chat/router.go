// Package chat answers free-text questions about the stock-index datasets.
//
// The Router builds a context block from the index reference table, asks
// the completion service for an answer and attaches structured data when
// the question names a known index symbol or region.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/internal/llm"
	"github.com/seenimoa/stockchat/pkg/models"
)

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("chat: message is empty")

// DefaultBarLimit caps the bars attached for a symbol hit.
const DefaultBarLimit = 5

// Dataset is the read side of the dataset accessor used by the router.
type Dataset interface {
	Indices(ctx context.Context) ([]models.IndexRecord, error)
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]models.Bar, error)
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Bar, error)
	FindByRegion(ctx context.Context, phrase string) ([]models.IndexRecord, error)
}

// RouterConfig holds the detector tables and attachment settings.
type RouterConfig struct {
	Symbols    []Keyword
	Regions    []Keyword
	BarLimit   int
	LatestBars bool // attach newest bars instead of on-disk order
}

// DefaultRouterConfig returns the built-in symbol and region tables.
func DefaultRouterConfig() RouterConfig {
	cfg := RouterConfig{BarLimit: DefaultBarLimit}
	for _, s := range config.DefaultSymbols {
		cfg.Symbols = append(cfg.Symbols, Keyword{Phrase: s, Match: MatchToken})
	}
	for _, r := range config.DefaultRegions {
		cfg.Regions = append(cfg.Regions, Keyword{Phrase: r, Match: MatchSubstring})
	}
	return cfg
}

// RouterConfigFrom converts the router config section. Symbols default to
// token matching and regions to substring matching.
func RouterConfigFrom(c config.RouterConfig) (RouterConfig, error) {
	symbols, err := ParseKeywords(c.Symbols, MatchToken)
	if err != nil {
		return RouterConfig{}, fmt.Errorf("router symbols: %w", err)
	}
	regions, err := ParseKeywords(c.Regions, MatchSubstring)
	if err != nil {
		return RouterConfig{}, fmt.Errorf("router regions: %w", err)
	}
	limit := c.BarLimit
	if limit <= 0 {
		limit = DefaultBarLimit
	}
	return RouterConfig{
		Symbols:    symbols,
		Regions:    regions,
		BarLimit:   limit,
		LatestBars: c.LatestBars,
	}, nil
}

// Router turns chat queries into answers.
type Router struct {
	data   Dataset
	llm    llm.Completer
	cfg    RouterConfig
	logger *zap.Logger
}

// NewRouter creates a router. A nil logger disables logging.
func NewRouter(data Dataset, completer llm.Completer, cfg RouterConfig, logger *zap.Logger) *Router {
	if cfg.BarLimit <= 0 {
		cfg.BarLimit = DefaultBarLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{data: data, llm: completer, cfg: cfg, logger: logger.Named("chat")}
}

// Answer handles one chat query. It never returns an error: every fault is
// reported through ChatAnswer.Success and ChatAnswer.Error.
//
// The caller-supplied query context is not used; the prompt context always
// comes from the index table.
func (r *Router) Answer(ctx context.Context, q models.ChatQuery) (ans models.ChatAnswer) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			ans = r.fail(fmt.Errorf("panic: %v", rec), start)
		}
	}()

	if strings.TrimSpace(q.Message) == "" {
		return r.fail(ErrEmptyMessage, start)
	}

	records, err := r.data.Indices(ctx)
	if err != nil {
		return r.fail(err, start)
	}
	prompt := BuildPrompt(BuildContext(records), q.Message)

	attachment, hits, err := r.attach(ctx, q.Message)
	if err != nil {
		return r.fail(err, start)
	}

	text, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return r.fail(err, start)
	}

	r.logger.Info("chat answered",
		zap.String("symbol", hits.symbol),
		zap.String("region", hits.region),
		zap.String("attachment", attachment.Kind()),
		zap.Duration("took", time.Since(start)),
	)
	return models.ChatAnswer{Response: text, Data: attachment, Success: true}
}

// AskDirect sends the message with the caller's own context and no
// dataset lookup.
func (r *Router) AskDirect(ctx context.Context, q models.ChatQuery) (string, error) {
	if strings.TrimSpace(q.Message) == "" {
		return "", ErrEmptyMessage
	}
	text, err := r.llm.Complete(ctx, BuildPrompt(q.Context, q.Message))
	if err != nil {
		r.logger.Warn("direct completion failed", zap.Error(err))
		return "", err
	}
	return text, nil
}

type detectorHits struct {
	symbol string
	region string
}

// attach runs the symbol detector and then the region detector. A region
// hit with results replaces any symbol payload.
func (r *Router) attach(ctx context.Context, message string) (*models.Attachment, detectorHits, error) {
	var (
		hits       detectorHits
		attachment *models.Attachment
	)
	msg := strings.ToLower(message)
	tokens := strings.Fields(msg)

	if kw, ok := firstMatch(r.cfg.Symbols, msg, tokens); ok {
		hits.symbol = kw.Phrase
		bars, err := r.bars(ctx, strings.ToUpper(kw.Phrase))
		if err != nil {
			return nil, hits, err
		}
		if len(bars) > 0 {
			attachment = &models.Attachment{StockData: bars}
		}
	}

	if kw, ok := firstMatch(r.cfg.Regions, msg, tokens); ok {
		hits.region = kw.Phrase
		recs, err := r.data.FindByRegion(ctx, kw.Phrase)
		if err != nil {
			return nil, hits, err
		}
		if len(recs) > 0 {
			attachment = &models.Attachment{IndexInfo: recs}
		}
	}
	return attachment, hits, nil
}

func (r *Router) bars(ctx context.Context, symbol string) ([]models.Bar, error) {
	if r.cfg.LatestBars {
		return r.data.RecentBySymbol(ctx, symbol, r.cfg.BarLimit)
	}
	return r.data.FindBySymbol(ctx, symbol, r.cfg.BarLimit)
}

func (r *Router) fail(err error, start time.Time) models.ChatAnswer {
	r.logger.Warn("chat failed", zap.Error(err), zap.Duration("took", time.Since(start)))
	return models.ChatAnswer{
		Response: ErrorResponse(err),
		Success:  false,
		Error:    err.Error(),
	}
}
