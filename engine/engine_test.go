package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/makemodel/brand"
	"github.com/use-agent/makemodel/extractor"
)

// fakeEngine returns a fixed result or error after an optional delay.
type fakeEngine struct {
	name  string
	html  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: f.html, FinalURL: req.URL, EngineName: f.name}, nil
}

func TestDispatcher_FirstSuccessWins(t *testing.T) {
	fast := &fakeEngine{name: "http", html: "<p>ok</p>"}
	slow := &fakeEngine{name: "rod", html: "<p>rod</p>", delay: time.Second}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, 500 * time.Millisecond}, mem, nil)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.Mitre10.co.nz/p/1"})

	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "http", mem.Get("www.mitre10.co.nz"))
}

func TestDispatcher_ValidatorEscalates(t *testing.T) {
	shell := &fakeEngine{name: "http", html: `<div id="__next"></div>`}
	browser := &fakeEngine{name: "rod", html: `<dl><dt>Model Number</dt><dd>X1</dd></dl>`}

	validate := func(res *FetchResult) error {
		if !strings.Contains(res.HTML, "Model Number") {
			return ErrIncomplete
		}
		return nil
	}

	d := NewDispatcher([]Engine{shell, browser}, []time.Duration{0, 10 * time.Millisecond}, nil, validate)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/p"})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
}

func TestDispatcher_AllIncompleteReturnsLastPage(t *testing.T) {
	// A rendered product page that simply has no brand or model.
	const page = `<html><body><div id="__next"><h1 data-locator="product-title">18V Cordless Drill Driver</h1>
<p>Keyless chuck with two speed gearbox.</p></div></body></html>`

	pipe, err := extractor.NewPipeline(brand.Default())
	require.NoError(t, err)
	validate := func(res *FetchResult) error {
		if !pipe.HasProduct(res.HTML, res.FinalURL) {
			return ErrIncomplete
		}
		return nil
	}

	httpEng := &fakeEngine{name: "http", html: page}
	rod := &fakeEngine{name: "rod", html: page}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{httpEng, rod}, []time.Duration{0, 10 * time.Millisecond}, mem, validate)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/drill_p0789"})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int32(1), rod.calls.Load(), "the browser tier is still tried")
	assert.Equal(t, "", mem.Get("www.bunnings.co.nz"), "an incomplete page is not remembered as a win")

	doc, err := extractor.NewDocument(res.HTML, res.FinalURL)
	require.NoError(t, err)
	result := pipe.Extract(doc)
	require.NotNil(t, result)
	assert.Nil(t, result.Make)
	assert.Nil(t, result.Model)
	assert.Equal(t, "", result.SearchTerm)
	assert.False(t, result.IsExclusive)
}

func TestDispatcher_IncompleteFromEngineFallsBack(t *testing.T) {
	shell := &incompleteEngine{name: "http", html: `<div id="root"></div>`}
	d := NewDispatcher([]Engine{shell}, nil, nil, nil)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.mitre10.co.nz/p"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
}

func TestDispatcher_RememberedIncompleteStillRaces(t *testing.T) {
	validate := func(res *FetchResult) error {
		if !strings.Contains(res.HTML, "Model Number") {
			return ErrIncomplete
		}
		return nil
	}
	httpEng := &fakeEngine{name: "http", html: "<p>no specs</p>"}
	rod := &fakeEngine{name: "rod", html: "<p>no specs either</p>"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("www.bunnings.co.nz", "rod")

	d := NewDispatcher([]Engine{httpEng, rod}, []time.Duration{0, 10 * time.Millisecond}, mem, validate)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/p"})

	require.NoError(t, err)
	assert.Contains(t, res.HTML, "no specs")
	assert.Equal(t, int32(1), httpEng.calls.Load())
}

// incompleteEngine returns its page together with ErrIncomplete, as the
// HTTP engine does for client-rendered shells.
type incompleteEngine struct {
	name string
	html string
}

func (e *incompleteEngine) Name() string { return e.name }

func (e *incompleteEngine) Fetch(_ context.Context, req *FetchRequest) (*FetchResult, error) {
	return &FetchResult{HTML: e.html, FinalURL: req.URL, EngineName: e.name}, ErrIncomplete
}

func TestDispatcher_AllFail(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher([]Engine{&fakeEngine{name: "http", err: boom}}, nil, nil, nil)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/p"})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_MemoryHitSkipsRace(t *testing.T) {
	httpEng := &fakeEngine{name: "http", html: "<p>http</p>"}
	rod := &fakeEngine{name: "rod", html: "<p>rod</p>"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("www.bunnings.co.nz", "rod")

	d := NewDispatcher([]Engine{httpEng, rod}, []time.Duration{0, time.Second}, mem, nil)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/p"})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, int32(0), httpEng.calls.Load())
}

func TestDispatcher_MemoryMissForgets(t *testing.T) {
	httpEng := &fakeEngine{name: "http", html: "<p>http</p>"}
	rod := &fakeEngine{name: "rod", err: errors.New("crashed")}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("www.bunnings.co.nz", "rod")

	d := NewDispatcher([]Engine{httpEng, rod}, []time.Duration{0, time.Second}, mem, nil)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://www.bunnings.co.nz/p"})

	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "http", mem.Get("www.bunnings.co.nz"))
}

func TestDomainMemory_Expiry(t *testing.T) {
	mem := NewDomainMemory(time.Millisecond)
	defer mem.Stop()

	mem.Set("mitre10.co.nz", "http")
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, "", mem.Get("mitre10.co.nz"))

	mem.Set("a", "http")
	mem.sweep(time.Now().Add(time.Hour))
	assert.Equal(t, "", mem.Get("a"))

	var nilMem *DomainMemory
	assert.Equal(t, "", nilMem.Get("a"))
}

func TestNeedsRendering(t *testing.T) {
	long := strings.Repeat("Ryobi 18V ONE+ cordless drill driver with battery. ", 10)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{"server rendered", "<html><body><p>" + long + "</p></body></html>", false},
		{"tiny body", "<html><body><p>Loading</p></body></html>", true},
		{"empty next root", `<html><body><div id="__next"></div><p>` + long + `</p></body></html>`, true},
		{"noscript warning", `<html><body><noscript>You need to enable JavaScript to run this app.</noscript><p>` + long + `</p></body></html>`, true},
		{"script text ignored", "<html><body><script>" + long + "</script></body></html>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsRendering(tt.html))
		})
	}
}

func TestHTTPEngine_Fetch(t *testing.T) {
	page := "<html><head><title>Jobmate Hammer | Mitre 10</title></head><body><p>" +
		strings.Repeat("Jobmate claw hammer with fibreglass handle. ", 10) + "</p></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Language"), "en-NZ")
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		case "/shell":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><div id="root"></div></body></html>`))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine(5*time.Second, "")

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/ok"})
	require.NoError(t, err)
	assert.Equal(t, "Jobmate Hammer | Mitre 10", res.Title)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "http", res.EngineName)

	res, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/shell"})
	assert.ErrorIs(t, err, ErrIncomplete)
	require.NotNil(t, res, "a shell page is kept for fallback")
	assert.Contains(t, res.HTML, `id="root"`)

	_, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/json"})
	assert.Error(t, err)

	_, err = e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/missing"})
	assert.Error(t, err)
}

func TestRodEngine(t *testing.T) {
	var gotStealth bool
	render := func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
		gotStealth = req.Stealth
		return &FetchResult{HTML: "<p/>"}, nil
	}

	req := &FetchRequest{URL: "https://www.bunnings.co.nz/p"}
	res, err := NewRodEngine(render, true).Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, gotStealth)
	assert.False(t, req.Stealth, "caller's request must not be mutated")
	assert.Equal(t, "rod-stealth", res.EngineName)

	_, err = NewRodEngine(nil, false).Fetch(context.Background(), req)
	assert.Error(t, err)
}
