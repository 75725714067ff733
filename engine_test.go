package favinfo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rix4uni/favinfo/common"
	"github.com/rix4uni/favinfo/favicon"
	"github.com/rix4uni/favinfo/fetch"
	"github.com/rix4uni/favinfo/signature"
	"github.com/stretchr/testify/require"
)

func testEngine(entries []signature.Entry, fetcher fetch.Fetcher) *Engine {
	engine := NewEngineWithTable(signature.NewTable(entries))
	engine.Fetcher = fetcher
	return engine
}

func staticFetcher(data []byte) fetch.Fetcher {
	return fetch.Func(func(ctx context.Context, target string) (*fetch.Favicon, error) {
		return &fetch.Favicon{Data: data, URL: target + "/favicon.ico", Source: fetch.SourceFallback}, nil
	})
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	require.NotZero(t, engine.Table.Len())
	require.NotNil(t, engine.Fetcher)
	require.Equal(t, DefaultThreads, engine.Threads)

	// the embedded table knows the hash of an empty favicon body
	require.Equal(t, []string{"Blank favicon"}, engine.Table.Lookup(-1840324437))
}

func TestMatchContent(t *testing.T) {
	engine := testEngine([]signature.Entry{
		{Fingerprint: -1253000196, Label: "Acme Panel"},
	}, nil)

	result := engine.MatchContent([]byte{0x00})
	require.False(t, result.Failed())
	require.Equal(t, common.Fingerprint(-1253000196), result.Fingerprint)
	require.Equal(t, "93b885adfe0da089cdf634904fd59f71", result.MD5)
	require.Equal(t, "6e340b9cffb37a989ca544e6bb780a2c78901d3fb33738768511a30617afa01d", result.SHA256)
	require.True(t, result.Matched)
	require.Equal(t, []string{"Acme Panel"}, result.Labels)
}

func TestMatchContentUnmatched(t *testing.T) {
	engine := testEngine(nil, nil)

	result := engine.MatchContent([]byte("favicon"))
	require.Equal(t, common.Fingerprint(1051234394), result.Fingerprint)
	require.False(t, result.Matched)
	require.Nil(t, result.Labels)
}

func TestMatchContentAccumulatedLabels(t *testing.T) {
	engine := testEngine([]signature.Entry{
		{Fingerprint: 1051234394, Label: "Acme Panel"},
		{Fingerprint: 1051234394, Label: "Acme Panel v2"},
	}, nil)

	result := engine.MatchContent([]byte("favicon"))
	require.Equal(t, []string{"Acme Panel", "Acme Panel v2"}, result.Labels)
}

func TestMatchContentEmptyBody(t *testing.T) {
	engine := testEngine([]signature.Entry{
		{Fingerprint: -1840324437, Label: "Blank favicon"},
	}, nil)

	result := engine.MatchContent(nil)
	require.Equal(t, common.Fingerprint(-1840324437), result.Fingerprint)
	require.Equal(t, []string{"Blank favicon"}, result.Labels)
}

func TestMatchOne(t *testing.T) {
	engine := testEngine([]signature.Entry{
		{Fingerprint: 1051234394, Label: "Acme Panel"},
	}, staticFetcher([]byte("favicon")))

	result := engine.MatchOne(context.Background(), "http://10.0.0.1")
	require.False(t, result.Failed())
	require.Equal(t, "http://10.0.0.1", result.Target)
	require.Equal(t, "http://10.0.0.1/favicon.ico", result.FaviconURL)
	require.True(t, result.Matched)
	require.Equal(t, []string{"Acme Panel"}, result.Labels)
}

func TestMatchOneFetchError(t *testing.T) {
	engine := testEngine(nil, fetch.Func(func(ctx context.Context, target string) (*fetch.Favicon, error) {
		return nil, errors.Wrap(common.ErrNotFound, target)
	}))

	result := engine.MatchOne(context.Background(), "http://10.0.0.1")
	require.True(t, result.Failed())
	require.Equal(t, common.KindNotFound, result.Err.Kind)
	require.Zero(t, result.Fingerprint)
	require.False(t, result.Matched)
}

func TestMatchOneMD5Fallback(t *testing.T) {
	engine := testEngine([]signature.Entry{
		{MD5: "d02a42d9cb3dec9320e5f550278911c7", Label: "Acme Panel"},
	}, staticFetcher([]byte("favicon")))

	result := engine.MatchOne(context.Background(), "http://10.0.0.1")
	require.True(t, result.Matched)
	require.Equal(t, []string{"Acme Panel"}, result.Labels)
}

func TestMatchOneNoFetcher(t *testing.T) {
	engine := testEngine(nil, nil)

	result := engine.MatchOne(context.Background(), "http://10.0.0.1")
	require.True(t, result.Failed())
	require.Equal(t, common.KindOther, result.Err.Kind)
}

func TestMatchAllPreservesOrder(t *testing.T) {
	targets := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	delays := map[string]time.Duration{}
	for i, target := range targets {
		delays[target] = time.Duration(len(targets)-i) * 3 * time.Millisecond
	}

	fetcher := fetch.Func(func(ctx context.Context, target string) (*fetch.Favicon, error) {
		time.Sleep(delays[target])
		return &fetch.Favicon{Data: []byte(target)}, nil
	})

	engine := testEngine(nil, fetcher)
	engine.Threads = 4

	results := engine.MatchAll(context.Background(), targets)
	require.Len(t, results, len(targets))
	for i, target := range targets {
		require.Equal(t, target, results[i].Target)
		require.Equal(t, favicon.Mmh3Hash([]byte(target)), results[i].Fingerprint)
	}
}

func TestMatchAllPartialFailure(t *testing.T) {
	fetcher := fetch.Func(func(ctx context.Context, target string) (*fetch.Favicon, error) {
		if target == "bad" {
			return nil, errors.New("boom")
		}
		return &fetch.Favicon{Data: []byte("favicon")}, nil
	})

	engine := testEngine([]signature.Entry{
		{Fingerprint: 1051234394, Label: "Acme Panel"},
	}, fetcher)

	results := engine.MatchAll(context.Background(), []string{"good", "bad", "good2"})
	require.True(t, results[0].Matched)
	require.True(t, results[1].Failed())
	require.Equal(t, common.KindOther, results[1].Err.Kind)
	require.True(t, results[2].Matched)
}

func TestMatchAllCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := fetch.Func(func(fctx context.Context, target string) (*fetch.Favicon, error) {
		if target == "fast" {
			return &fetch.Favicon{Data: []byte("favicon")}, nil
		}
		<-fctx.Done()
		return nil, fctx.Err()
	})

	engine := testEngine([]signature.Entry{
		{Fingerprint: 1051234394, Label: "Acme Panel"},
	}, fetcher)
	engine.Threads = 2
	engine.Timeout = -1
	engine.OnResult = func(result *common.MatchResult) {
		if result.Target == "fast" {
			cancel()
		}
	}

	targets := []string{"fast", "slow1", "slow2", "slow3", "slow4"}
	done := make(chan []*common.MatchResult, 1)
	go func() {
		done <- engine.MatchAll(ctx, targets)
	}()

	var results []*common.MatchResult
	select {
	case results = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("MatchAll did not return after cancellation")
	}
	defer cancel()

	require.Len(t, results, len(targets))
	require.True(t, results[0].Matched)
	for i := 1; i < len(results); i++ {
		require.True(t, results[i].Failed(), "target %s", targets[i])
		require.Equal(t, common.KindCancelled, results[i].Err.Kind, "target %s", targets[i])
		require.Equal(t, targets[i], results[i].Target)
	}
}

func TestMatchAllOnResult(t *testing.T) {
	engine := testEngine(nil, staticFetcher([]byte("favicon")))
	engine.Threads = 3

	var mu sync.Mutex
	var seen []string
	engine.OnResult = func(result *common.MatchResult) {
		mu.Lock()
		seen = append(seen, result.Target)
		mu.Unlock()
	}

	targets := []string{"a", "b", "c", "d", "e"}
	engine.MatchAll(context.Background(), targets)
	require.Len(t, seen, len(targets))
}

func TestMatchAllRateLimited(t *testing.T) {
	engine := testEngine(nil, staticFetcher([]byte("favicon")))
	engine.RateLimit = 100

	results := engine.MatchAll(context.Background(), []string{"a", "b", "c"})
	require.Len(t, results, 3)
	for _, result := range results {
		require.False(t, result.Failed())
	}
}

func TestMatchAllEmpty(t *testing.T) {
	engine := testEngine(nil, staticFetcher(nil))
	results := engine.MatchAll(context.Background(), nil)
	require.Empty(t, results)
}
