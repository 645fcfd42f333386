package vtb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-ddcheck/internal/outcome"
	"github.com/tartampluch/go-ddcheck/internal/vtb"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockSource simulates the mirror layer using `testify/mock`.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context) outcome.Result[vtb.List] {
	args := m.Called(ctx)
	return args.Get(0).(outcome.Result[vtb.List])
}

func newCache() *vtb.ListCache {
	return &vtb.ListCache{Fs: afero.NewMemMapFs(), Path: "/data/vtb_list.json"}
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestGetOrRefresh_CacheHitSkipsFetch(t *testing.T) {
	cache := newCache()
	require.NoError(t, cache.Save(vtb.List{{ID: 1, Name: "a"}}))

	src := new(MockSource)
	r := &vtb.Refresher{Source: src, Store: cache}

	list := r.GetOrRefresh(context.Background())

	assert.Equal(t, vtb.List{{ID: 1, Name: "a"}}, list)
	src.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestGetOrRefresh_CacheMissFetchesOnceAndPersists(t *testing.T) {
	cache := newCache()
	src := new(MockSource)
	src.On("Fetch", mock.Anything).
		Return(outcome.Success(vtb.List{{ID: 2, Name: "b"}})).Once()

	var published vtb.List
	r := &vtb.Refresher{Source: src, Store: cache, OnUpdate: func(l vtb.List) { published = l }}

	list := r.GetOrRefresh(context.Background())

	assert.Equal(t, vtb.List{{ID: 2, Name: "b"}}, list)
	assert.Equal(t, list, cache.Load(), "list is read back from the cache")
	assert.Equal(t, list, published)
	src.AssertExpectations(t)
}

func TestGetOrRefresh_FetchFailureYieldsEmpty(t *testing.T) {
	cache := newCache()
	src := new(MockSource)
	src.On("Fetch", mock.Anything).
		Return(outcome.Failure[vtb.List](outcome.ErrTimeout)).Once()

	r := &vtb.Refresher{Source: src, Store: cache}

	assert.Empty(t, r.GetOrRefresh(context.Background()))
	src.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestGetOrRefresh_CorruptedCacheTriggersRefresh(t *testing.T) {
	cache := newCache()
	require.NoError(t, afero.WriteFile(cache.Fs, cache.Path, []byte("{broken"), 0644))

	src := new(MockSource)
	src.On("Fetch", mock.Anything).Return(outcome.Success(vtb.List{{ID: 3, Name: "c"}}))

	r := &vtb.Refresher{Source: src, Store: cache}

	assert.Equal(t, vtb.List{{ID: 3, Name: "c"}}, r.GetOrRefresh(context.Background()))
}

// TestScheduledRefresh_Unconditional refreshes even when the cache is populated.
func TestScheduledRefresh_Unconditional(t *testing.T) {
	cache := newCache()
	require.NoError(t, cache.Save(vtb.List{{ID: 1, Name: "old"}}))

	src := new(MockSource)
	src.On("Fetch", mock.Anything).Return(outcome.Success(vtb.List{{ID: 9, Name: "new"}})).Once()

	r := &vtb.Refresher{Source: src, Store: cache}
	r.ScheduledRefresh(context.Background())

	assert.Equal(t, vtb.List{{ID: 9, Name: "new"}}, cache.Load())
	src.AssertExpectations(t)
}

func TestRefresh_FailureKeepsPreviousCache(t *testing.T) {
	cache := newCache()
	require.NoError(t, cache.Save(vtb.List{{ID: 1, Name: "old"}}))

	src := new(MockSource)
	src.On("Fetch", mock.Anything).Return(outcome.Failure[vtb.List](errors.New("all mirrors failed")))

	r := &vtb.Refresher{Source: src, Store: cache}
	res := r.Refresh(context.Background())

	assert.False(t, res.Ok())
	assert.Equal(t, vtb.List{{ID: 1, Name: "old"}}, cache.Load())
}
