package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chorusd/chorus/internal/config"
	apperrors "github.com/chorusd/chorus/internal/errors"
	"github.com/chorusd/chorus/internal/logger"
	"github.com/chorusd/chorus/internal/model/contract"
	anthropicProvider "github.com/chorusd/chorus/internal/model/providers/anthropic"
	googleProvider "github.com/chorusd/chorus/internal/model/providers/google"
	openaiProvider "github.com/chorusd/chorus/internal/model/providers/openai"
)

// DefaultRouter keeps one client per configured provider and routes
// completion requests to it by provider name.
type DefaultRouter struct {
	providers map[string]providerEntry
	mu        sync.RWMutex
}

type providerEntry struct {
	provider Provider
	timeout  time.Duration
}

// NewRouter builds a router from the models registry. Entries whose client
// cannot be constructed are skipped with a warning, so one bad credential
// does not take down the rest.
func NewRouter(cfg config.ModelsConfig) (*DefaultRouter, error) {
	r := &DefaultRouter{providers: make(map[string]providerEntry)}

	for _, entry := range cfg.Registry {
		provider, err := createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "error", err)
			continue
		}

		timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultModelRequestTimeout)
		if err != nil {
			return nil, apperrors.InvalidInput(
				fmt.Sprintf("invalid request_timeout for provider %s: %v", entry.Provider, err))
		}

		r.providers[entry.Provider] = providerEntry{provider: provider, timeout: timeout}
		slog.Info("Provider initialized", "provider", entry.Provider)
	}

	if len(r.providers) == 0 && len(cfg.Registry) > 0 {
		return nil, apperrors.Internal("no providers initialized")
	}

	return r, nil
}

// Route sends a completion request to the named provider. Errors from the
// SDK come back mapped onto the error taxonomy; a cancelled context passes
// through unchanged.
func (r *DefaultRouter) Route(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	traceID := logger.GetTraceID(ctx)

	r.mu.RLock()
	entry, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured: %w", provider, apperrors.ErrUnknownProviderModel)
	}

	if entry.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, entry.timeout)
		defer cancel()
	}

	slog.Info("Routing completion request",
		"provider", provider, "model", req.Model, "trace_id", traceID)

	resp, err := entry.provider.Generate(ctx, req)
	if err != nil {
		slog.Error("Provider request failed",
			"provider", provider, "model", req.Model, "error", err, "trace_id", traceID)
		return nil, apperrors.MapExternal(err)
	}

	slog.Info("Request completed", "provider", provider, "model", req.Model, "trace_id", traceID)
	return resp, nil
}

// ListProviders returns the configured provider names, sorted.
func (r *DefaultRouter) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func createProvider(entry config.ModelRegistry) (Provider, error) {
	switch entry.Provider {
	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}
		return openaiProvider.New(entry.APIKey, baseURL, "openai"), nil

	case "xai":
		// xAI exposes an OpenAI-compatible API.
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultXAIBaseURL
		}
		if entry.APIKey == "" {
			return nil, apperrors.InvalidInput("API key required for xAI provider")
		}
		return openaiProvider.New(entry.APIKey, baseURL, "xai"), nil

	case "anthropic":
		return anthropicProvider.New(entry.APIKey), nil

	case "google":
		return googleProvider.New(entry.APIKey)

	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
