package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Dispatcher races engines with staged escalation: engines[i] starts
// delays[i] after the race begins, and the first accepted result wins.
// A host whose winner is remembered skips the race.
type Dispatcher struct {
	engines  []Engine
	delays   []time.Duration
	memory   *DomainMemory
	validate Validator
}

// NewDispatcher pads or truncates delays to one per engine. memory and
// validate may be nil.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory, validate Validator) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{engines: engines, delays: d, memory: memory, validate: validate}
}

// Dispatch returns the first accepted result. When no engine produces an
// accepted page but some engine returned an incomplete one, the last
// incomplete page is returned: incompleteness only escalates the race.
// Otherwise the last error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)

	var fallback *FetchResult
	if name := d.memory.Get(host); name != "" {
		if eng := d.engine(name); eng != nil {
			slog.Debug("engine memory hit", "host", host, "engine", name)
			res, err := d.attempt(ctx, eng, req)
			if err == nil {
				return res, nil
			}
			if res != nil {
				fallback = res
			}
			slog.Info("remembered engine failed, running full race", "host", host, "engine", name, "error", err)
			d.memory.Delete(host)
		}
	}

	return d.race(ctx, req, host, fallback)
}

// attempt fetches with one engine and applies the validator. An
// incomplete page, from the engine or the validator, is returned together
// with the error.
func (d *Dispatcher) attempt(ctx context.Context, eng Engine, req *FetchRequest) (*FetchResult, error) {
	res, err := eng.Fetch(ctx, req)
	if err != nil {
		if res != nil && errors.Is(err, ErrIncomplete) {
			return res, err
		}
		return nil, err
	}
	if d.validate != nil {
		if err := d.validate(res); err != nil {
			return res, fmt.Errorf("%s: %w", eng.Name(), err)
		}
	}
	return res, nil
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string, fallback *FetchResult) (*FetchResult, error) {
	type outcome struct {
		res *FetchResult
		err error
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(eng Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				t := time.NewTimer(delay)
				defer t.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-t.C:
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", eng.Name(), "url", req.URL)
			res, err := d.attempt(raceCtx, eng, req)
			if err != nil {
				slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			}
			results <- outcome{res: res, err: err}
		}(eng, d.delays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for o := range results {
		if o.err != nil {
			if o.res != nil {
				fallback = o.res
			}
			lastErr = o.err
			continue
		}
		cancel()
		slog.Info("engine won race", "engine", o.res.EngineName, "url", req.URL)
		d.memory.Set(host, o.res.EngineName)
		return o.res, nil
	}

	if fallback != nil {
		slog.Info("no engine produced a complete page, using last incomplete one",
			"engine", fallback.EngineName, "url", req.URL)
		return fallback, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
		if ctx.Err() != nil {
			lastErr = fmt.Errorf("dispatcher: %s: %w", req.URL, ctx.Err())
		}
	}
	return nil, lastErr
}

func (d *Dispatcher) engine(name string) Engine {
	for _, e := range d.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// hostOf returns the lowercased host of rawURL, or rawURL itself.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
