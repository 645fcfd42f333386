package vtb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-ddcheck/internal/fetch"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// mirror starts a test server answering with body and counting its hits.
func mirror(t *testing.T, status int, body string, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func TestListFetcher_FirstSuccessWins(t *testing.T) {
	first, firstHits := mirror(t, http.StatusOK, `[{"mid":1,"uname":"a","roomid":10},{"mid":2,"uname":"b"}]`, 0)
	second, secondHits := mirror(t, http.StatusOK, `[{"mid":3,"uname":"c"}]`, 0)

	f := NewListFetcher(fetch.NewHTTPFetcher(), []string{first.URL, second.URL})
	res := f.Fetch(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, List{{ID: 1, Name: "a", RoomID: 10}, {ID: 2, Name: "b"}}, res.Value())
	assert.Equal(t, int32(1), firstHits.Load())
	assert.Equal(t, int32(0), secondHits.Load(), "no mirror after the first success is called")
}

func TestListFetcher_FallsBack(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"EmptyArray", http.StatusOK, `[]`},
		{"Null", http.StatusOK, `null`},
		{"NotJSON", http.StatusOK, `<html>bad gateway</html>`},
		{"ServerError", http.StatusBadGateway, `[{"mid":9,"uname":"z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad, badHits := mirror(t, tt.status, tt.body, 0)
			good, goodHits := mirror(t, http.StatusOK, `[{"mid":3,"uname":"c"}]`, 0)

			f := NewListFetcher(fetch.NewHTTPFetcher(), []string{bad.URL, good.URL})
			res := f.Fetch(context.Background())

			require.True(t, res.Ok())
			assert.Equal(t, List{{ID: 3, Name: "c"}}, res.Value())
			assert.Equal(t, int32(1), badHits.Load())
			assert.Equal(t, int32(1), goodHits.Load())
		})
	}
}

func TestListFetcher_TimeoutFallsBack(t *testing.T) {
	slow, _ := mirror(t, http.StatusOK, `[{"mid":1,"uname":"slow"}]`, time.Second)
	fast, _ := mirror(t, http.StatusOK, `[{"mid":2,"uname":"fast"}]`, 0)

	f := NewListFetcher(fetch.NewHTTPFetcher(), []string{slow.URL, fast.URL})
	f.Timeout = 20 * time.Millisecond

	res := f.Fetch(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, List{{ID: 2, Name: "fast"}}, res.Value())
}

func TestListFetcher_AllMirrorsFail(t *testing.T) {
	slow, _ := mirror(t, http.StatusOK, `[{"mid":1,"uname":"slow"}]`, time.Second)
	empty, _ := mirror(t, http.StatusOK, `[]`, 0)
	broken, _ := mirror(t, http.StatusInternalServerError, ``, 0)

	f := NewListFetcher(fetch.NewHTTPFetcher(), []string{slow.URL, empty.URL, broken.URL})
	f.Timeout = 20 * time.Millisecond

	res := f.Fetch(context.Background())

	assert.False(t, res.Ok())
	assert.Empty(t, res.Value())
	assert.ErrorIs(t, res.Reason(), outcome.ErrTimeout)
	assert.ErrorIs(t, res.Reason(), outcome.ErrMalformed)
	assert.ErrorIs(t, res.Reason(), outcome.ErrTransport)
}

func TestListFetcher_NoMirrors(t *testing.T) {
	res := NewListFetcher(fetch.NewHTTPFetcher(), nil).Fetch(context.Background())

	assert.False(t, res.Ok())
	assert.Empty(t, res.Value())
}

// TestListFetcher_NormalizesEntries drops entries lacking an id or a name
// but still stops at the mirror that answered.
func TestListFetcher_NormalizesEntries(t *testing.T) {
	body := `[
		{"mid":1,"uname":"ok"},
		{"mid":null,"uname":"no id"},
		{"uname":"missing id"},
		{"mid":2,"uname":null},
		{"mid":3},
		{"mid":0,"uname":"zero"},
		{"mid":4,"uname":""}
	]`
	first, _ := mirror(t, http.StatusOK, body, 0)
	second, secondHits := mirror(t, http.StatusOK, `[{"mid":5,"uname":"other"}]`, 0)

	res := NewListFetcher(fetch.NewHTTPFetcher(), []string{first.URL, second.URL}).Fetch(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, List{{ID: 1, Name: "ok"}}, res.Value())
	assert.Equal(t, int32(0), secondHits.Load())
}

// TestListFetcher_SkipsMistypedEntries keeps the valid entries of a mirror
// whose other elements have the wrong shape.
func TestListFetcher_SkipsMistypedEntries(t *testing.T) {
	body := `[
		{"mid":1,"uname":"a"},
		{"mid":2,"uname":123},
		{"mid":"x","uname":"b"},
		"not an object",
		null,
		{"mid":3,"uname":"c","roomid":30}
	]`
	first, _ := mirror(t, http.StatusOK, body, 0)
	second, secondHits := mirror(t, http.StatusOK, `[{"mid":5,"uname":"other"}]`, 0)

	res := NewListFetcher(fetch.NewHTTPFetcher(), []string{first.URL, second.URL}).Fetch(context.Background())

	require.True(t, res.Ok())
	assert.Equal(t, List{{ID: 1, Name: "a"}, {ID: 3, Name: "c", RoomID: 30}}, res.Value())
	assert.Equal(t, int32(0), secondHits.Load())
}
