package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/makemodel/brand"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
)

const (
	bunningsURL = "https://www.bunnings.co.nz/ryobi-drill_p0123"

	pageNoModel = `<html><body>
<a data-locator="product-brand-name">Ryobi</a>
<h1>Ryobi 18V ONE+ Drill</h1>
</body></html>`

	pageWithModel = `<html><body>
<a data-locator="product-brand-name">Ryobi</a>
<h1>Ryobi 18V ONE+ Drill</h1>
<dl><dt>Model Number</dt><dd>R18PD3-0</dd></dl>
</body></html>`
)

// countingStore records how often Save is called.
type countingStore struct {
	MemoryStore
	saves atomic.Int32
}

func (c *countingStore) Save(ctx context.Context, v string) error {
	c.saves.Add(1)
	return c.MemoryStore.Save(ctx, v)
}

func testPipeline(t *testing.T) *extractor.Pipeline {
	t.Helper()
	p, err := extractor.NewPipeline(brand.Default())
	require.NoError(t, err)
	return p
}

func stored(t *testing.T, s Store) (string, bool) {
	t.Helper()
	v, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	return v, ok
}

func query(t *testing.T, s *Session) *models.ExtractionResult {
	t.Helper()
	resp, err := s.Query(context.Background(), models.QueryRequest{Action: models.ActionGetMakeAndModel})
	require.NoError(t, err)
	return resp.Result
}

func TestSession_TimerPassCachesResult(t *testing.T) {
	store := NewMemoryStore()
	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), store, testPipeline(t),
		Options{Delays: []time.Duration{0}})
	s.Start()
	defer s.Close()

	require.Eventually(t, func() bool {
		_, ok := stored(t, store)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	v, _ := stored(t, store)
	assert.Contains(t, v, `"model":"R18PD3-0"`)

	got := query(t, s)
	require.NotNil(t, got)
	assert.Equal(t, "Ryobi R18PD3-0", got.SearchTerm)
	assert.True(t, got.IsExclusive)
}

func TestSession_ScheduleStopsAfterLastTimer(t *testing.T) {
	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), NewMemoryStore(), testPipeline(t),
		Options{Delays: []time.Duration{0, 5 * time.Millisecond}})
	s.Start()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("schedule without mutation source should end after the last timer pass")
	}
	s.Close()
}

func TestSession_QueryWithoutCacheExtracts(t *testing.T) {
	store := NewMemoryStore()
	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), store, testPipeline(t), Options{})

	got := query(t, s)
	require.NotNil(t, got)
	assert.Equal(t, "R18PD3-0", *got.Model)

	_, ok := stored(t, store)
	assert.False(t, ok, "the query path must not write the store")
}

func TestSession_CorruptedCacheFallsBack(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), `{"make": "Ryo`))

	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), store, testPipeline(t), Options{})

	got := query(t, s)
	require.NotNil(t, got)
	assert.Equal(t, "Ryobi", *got.Make)
}

func TestSession_CachedValueWins(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(),
		`{"make":"Bosch","model":"GSB18","searchTerm":"Bosch GSB18","isExclusive":false,"exclusiveMessage":null,"retailer":"Bunnings"}`))

	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), store, testPipeline(t), Options{})

	got := query(t, s)
	require.NotNil(t, got)
	assert.Equal(t, "Bosch", *got.Make)
}

func TestSession_UnsupportedDomain(t *testing.T) {
	store := NewMemoryStore()
	s := New("s1", "https://example.com/p", NewStaticSource(pageWithModel, "https://example.com/p"), store,
		testPipeline(t), Options{})

	assert.Nil(t, s.Pass(context.Background()))
	assert.Nil(t, query(t, s))

	_, ok := stored(t, store)
	assert.False(t, ok, "nothing is stored for an unsupported page")
}

func TestSession_UnsupportedAction(t *testing.T) {
	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), NewMemoryStore(), testPipeline(t), Options{})

	_, err := s.Query(context.Background(), models.QueryRequest{Action: "openTab"})

	var ee *models.ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, models.ErrCodeUnsupportedAction, ee.Code)
}

func TestSession_MutationUpgradesResult(t *testing.T) {
	store := NewMemoryStore()
	src := NewStaticSource(pageNoModel, bunningsURL)
	s := New("s1", bunningsURL, src, store, testPipeline(t),
		Options{Delays: []time.Duration{0}, WatchMutations: true})
	s.Start()
	defer s.Close()
	assert.True(t, s.Live())

	require.Eventually(t, func() bool {
		v, ok := stored(t, store)
		return ok && strings.Contains(v, `"model":null`)
	}, 2*time.Second, 10*time.Millisecond)

	src.Update(pageWithModel)

	require.Eventually(t, func() bool {
		v, _ := stored(t, store)
		return strings.Contains(v, `"model":"R18PD3-0"`)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_UnchangedMutationSkipped(t *testing.T) {
	store := &countingStore{}
	s := New("s1", bunningsURL, NewStaticSource(pageWithModel, bunningsURL), store, testPipeline(t),
		Options{WatchMutations: true})

	require.NotNil(t, s.pass(context.Background(), TriggerTimer))
	assert.Nil(t, s.pass(context.Background(), TriggerMutation))
	assert.Equal(t, int32(1), store.saves.Load())

	require.NotNil(t, s.pass(context.Background(), TriggerTimer), "timer passes always run")
	assert.Equal(t, int32(2), store.saves.Load())
}

func TestSession_CloseClearsStore(t *testing.T) {
	store := NewMemoryStore()
	src := NewStaticSource(pageWithModel, bunningsURL)
	s := New("s1", bunningsURL, src, store, testPipeline(t), Options{WatchMutations: true})
	s.Start()

	require.NotNil(t, s.Pass(context.Background()))
	s.Close()
	s.Close()

	_, ok := stored(t, store)
	assert.False(t, ok)

	select {
	case <-s.Done():
	default:
		t.Fatal("schedule still running after Close")
	}

	src.Update(pageNoModel) // ignored after close
}

func TestSession_UpdateWithoutWatcherPassesNow(t *testing.T) {
	store := NewMemoryStore()
	s := New("s1", bunningsURL, NewStaticSource(pageNoModel, bunningsURL), store, testPipeline(t), Options{})

	require.NoError(t, s.Update(context.Background(), pageWithModel))

	v, ok := stored(t, store)
	require.True(t, ok)
	assert.Contains(t, v, `"model":"R18PD3-0"`)
}

func TestSession_UpdateRejectsOtherSources(t *testing.T) {
	s := New("s1", bunningsURL, stubSource{}, NewMemoryStore(), testPipeline(t), Options{})

	err := s.Update(context.Background(), pageWithModel)

	var ee *models.ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, models.ErrCodeInvalidInput, ee.Code)
}

type stubSource struct{}

func (stubSource) Snapshot(context.Context) (*extractor.Document, error) {
	return extractor.NewDocument(pageNoModel, bunningsURL)
}
