package modelgw

import (
	"context"
	"errors"
)

// ErrRateLimited is wrapped into the error a provider returns when the
// upstream API reports a rate limit (HTTP 429). Call retries every error
// Complete returns, rate limit or otherwise, so this sentinel exists for
// callers and logs that want to tell a 429 apart from other failures, not
// to gate retry eligibility.
var ErrRateLimited = errors.New("modelgw: rate limited")

// ProviderConfig selects and authenticates a single provider/model pair.
// One ProviderConfig is typically built per agent role (planner, writer,
// compaction summarizer), since different roles often target different
// model tiers.
type ProviderConfig struct {
	Provider string // "anthropic" | "openai" | "azure" | "google"
	APIKey   string
	Model    string
	Endpoint string // required for azure, ignored otherwise
}

// Client is the interface every provider adapter implements. A Client is
// constructed once per ProviderConfig and reused across calls.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// NewClient resolves a ProviderConfig to a concrete provider Client.
func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicClient(cfg)
	case "openai", "azure":
		return newOpenAIClient(cfg)
	case "google":
		return newGoogleClient(cfg)
	default:
		return nil, errors.New("modelgw: unknown provider " + cfg.Provider)
	}
}
