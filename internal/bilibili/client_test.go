package bilibili_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-ddcheck/internal/bilibili"
	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/fetch"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// -----------------------------------------------------------------------------
// Mocks & Fixtures
// -----------------------------------------------------------------------------

// MockGetter records network access using `testify/mock`.
type MockGetter struct {
	mock.Mock
}

func (m *MockGetter) Get(ctx context.Context, target string, q url.Values, h http.Header) (io.ReadCloser, error) {
	args := m.Called(ctx, target, q, h)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// newAPI serves the three bilibili endpoints from a single test server.
func newAPI(t *testing.T, search, card, medals string) *bilibili.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.SearchTypeBiliUsr, r.URL.Query().Get(config.ParamSearchType))
		_, _ = w.Write([]byte(search))
	})
	mux.HandleFunc("/card", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get(config.ParamMid))
		_, _ = w.Write([]byte(card))
	})
	mux.HandleFunc("/medals", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SESSDATA=abc", r.Header.Get(config.HeaderCookie), "cookie must be forwarded")
		assert.NotEmpty(t, r.URL.Query().Get(config.ParamTargetID))
		_, _ = w.Write([]byte(medals))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c := bilibili.NewClient(fetch.NewHTTPFetcher(), "SESSDATA=abc")
	c.SearchURL = ts.URL + "/search"
	c.ProfileURL = ts.URL + "/card"
	c.MedalURL = ts.URL + "/medals"
	return c
}

// -----------------------------------------------------------------------------
// ResolveUID
// -----------------------------------------------------------------------------

func TestResolveUID_NumericSkipsNetwork(t *testing.T) {
	getter := new(MockGetter)
	c := bilibili.NewClient(getter, "")

	tests := map[string]int64{
		"12345":     12345,
		"0":         0,
		"007":       7,
		"672328094": 672328094,
	}
	for in, want := range tests {
		assert.Equal(t, want, c.ResolveUID(context.Background(), in), in)
	}
	getter.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveUID_Overflow(t *testing.T) {
	getter := new(MockGetter)
	c := bilibili.NewClient(getter, "")

	assert.Equal(t, config.NotFoundUID, c.ResolveUID(context.Background(), "99999999999999999999999"))
	getter.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveUID_ByName(t *testing.T) {
	search := `{"code":0,"data":{"result":[
		{"uname":"someStreamer","mid":1},
		{"uname":"SomeStreamer","mid":777},
		{"uname":"SomeStreamer","mid":888}
	]}}`
	c := newAPI(t, search, `{}`, `{}`)

	assert.Equal(t, int64(777), c.ResolveUID(context.Background(), "SomeStreamer"), "first exact case-sensitive match")
}

func TestResolveUID_Failures(t *testing.T) {
	tests := []struct {
		name   string
		search string
	}{
		{"NoExactMatch", `{"data":{"result":[{"uname":"Other","mid":5}]}}`},
		{"NoResultKey", `{"data":{"numResults":0}}`},
		{"NoData", `{"code":-412,"message":"request blocked"}`},
		{"NotJSON", `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAPI(t, tt.search, `{}`, `{}`)
			assert.Equal(t, config.NotFoundUID, c.ResolveUID(context.Background(), "SomeStreamer"))
		})
	}
}

func TestResolveUID_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	c := bilibili.NewClient(fetch.NewHTTPFetcher(), "")
	c.SearchURL = ts.URL
	c.Timeout = 20 * time.Millisecond

	assert.Equal(t, config.NotFoundUID, c.ResolveUID(context.Background(), "slow"))
}

// -----------------------------------------------------------------------------
// FetchProfile
// -----------------------------------------------------------------------------

func TestFetchProfile_Success(t *testing.T) {
	card := `{"code":0,"card":{"mid":"672328094","name":"某用户","face":"https://i0.hdslb.com/face.jpg",
		"fans":1024,"attention":3,"attentions":[1,2,3]}}`
	c := newAPI(t, `{}`, card, `{}`)

	res := c.FetchProfile(context.Background(), 672328094)

	require.True(t, res.Ok())
	p := res.Value()
	assert.Equal(t, int64(672328094), p.ID)
	assert.Equal(t, "某用户", p.Name)
	assert.Equal(t, "https://i0.hdslb.com/face.jpg", p.AvatarURL)
	assert.Equal(t, int64(1024), p.FanCount)
	assert.Equal(t, int64(3), p.FollowCount)
	assert.True(t, p.Follows(2))
	assert.False(t, p.Follows(4))
}

func TestFetchProfile_MissingCard(t *testing.T) {
	c := newAPI(t, `{}`, `{"code":-404,"message":"not found"}`, `{}`)

	res := c.FetchProfile(context.Background(), 1)

	assert.False(t, res.Ok())
	assert.ErrorIs(t, res.Reason(), outcome.ErrMalformed)
	assert.Empty(t, res.Value().Name)
}

// -----------------------------------------------------------------------------
// FetchMedals
// -----------------------------------------------------------------------------

func TestFetchMedals_Success(t *testing.T) {
	medals := `{"data":{"list":[
		{"target_name":"A","medal_info":{"medal_name":"小A","level":21,
			"medal_color_border":398668,"medal_color_start":398668,"medal_color_end":6850801}},
		{"target_name":"B","medal_info":{"medal_name":"小B","level":3,
			"medal_color_border":0,"medal_color_start":6067854,"medal_color_end":6067854}}
	]}}`
	c := newAPI(t, `{}`, `{}`, medals)

	res := c.FetchMedals(context.Background(), 1)

	require.True(t, res.Ok())
	require.Len(t, res.Value(), 2)
	assert.Equal(t, bilibili.Medal{
		OwnerName: "A", Name: "小A", Level: 21,
		ColorBorder: 398668, ColorStart: 398668, ColorEnd: 6850801,
	}, res.Value()[0])
}

func TestFetchMedals_Malformed(t *testing.T) {
	c := newAPI(t, `{}`, `{}`, `{"code":-101,"message":"账号未登录"}`)

	res := c.FetchMedals(context.Background(), 1)

	assert.False(t, res.Ok())
	assert.Empty(t, res.Value())
}
