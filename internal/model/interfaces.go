package model

import (
	"context"

	"github.com/chorusd/chorus/internal/model/contract"
)

type Router interface {
	Route(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	ListProviders() []string
}

type Provider interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Name() string
}
