package coordinator

import (
	"context"

	"github.com/chorusd/chorus/internal/model"
	"github.com/chorusd/chorus/internal/model/contract"
)

type routerGenerator struct {
	router model.Router
}

// NewRouterGenerator adapts the model router to the coordinator's Generator.
func NewRouterGenerator(r model.Router) Generator {
	return routerGenerator{router: r}
}

func (g routerGenerator) Generate(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	return g.router.Route(ctx, provider, req)
}
