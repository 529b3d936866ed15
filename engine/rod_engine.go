package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in a browser tab. The scraper provides it, so
// this package does not depend on rod.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is a browser tier. The stealth variant always injects the
// evasion script regardless of the request.
type RodEngine struct {
	render  RenderFunc
	stealth bool
}

func NewRodEngine(render RenderFunc, stealth bool) *RodEngine {
	return &RodEngine{render: render, stealth: stealth}
}

func (e *RodEngine) Name() string {
	if e.stealth {
		return "rod-stealth"
	}
	return "rod"
}

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: no browser configured", e.Name())
	}

	r := *req
	r.Stealth = r.Stealth || e.stealth

	res, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	res.EngineName = e.Name()
	return res, nil
}
