package favinfo

import (
	"context"
	"time"

	"github.com/chainreactors/logs"
	"github.com/pkg/errors"
	"github.com/projectdiscovery/ratelimit"
	"github.com/remeh/sizedwaitgroup"
	"github.com/rix4uni/favinfo/common"
	"github.com/rix4uni/favinfo/favicon"
	"github.com/rix4uni/favinfo/fetch"
	"github.com/rix4uni/favinfo/signature"
)

const (
	DefaultThreads = 25
	DefaultTimeout = 10 * time.Second
)

var (
	ErrNoFetcher = errors.New("no fetcher configured")
)

// Engine hashes favicons and resolves them against a signature table.
// Table and Fetcher are fixed at construction, the remaining fields may
// be tuned before the first Match call.
type Engine struct {
	Table   *signature.Table
	Fetcher fetch.Fetcher

	Threads   int           // concurrent targets, DefaultThreads when 0
	RateLimit int           // fetches per second, unlimited when 0
	Timeout   time.Duration // per target, DefaultTimeout when 0, unlimited when negative

	// OnResult is invoked as each target finishes, from the worker
	// goroutine that produced the result.
	OnResult common.ResultCallback
}

// NewEngine builds an engine backed by the embedded signature table and
// a plain http fetcher.
func NewEngine() (*Engine, error) {
	table, err := signature.Default()
	if err != nil {
		return nil, errors.Wrap(err, "load embedded signatures")
	}
	return NewEngineWithTable(table), nil
}

func NewEngineWithTable(table *signature.Table) *Engine {
	return &Engine{
		Table:   table,
		Fetcher: fetch.NewHTTPFetcher(nil),
		Threads: DefaultThreads,
		Timeout: DefaultTimeout,
	}
}

// MatchContent fingerprints raw favicon bytes without any network
// round trip.
func (engine *Engine) MatchContent(data []byte) *common.MatchResult {
	result := &common.MatchResult{}
	engine.fill(result, &fetch.Favicon{Data: data})
	return result
}

// MatchOne probes a single target. Failures never surface as a Go error,
// they are classified and recorded on the result.
func (engine *Engine) MatchOne(ctx context.Context, target string) *common.MatchResult {
	result := &common.MatchResult{Target: target}
	if engine.Fetcher == nil {
		result.Err = common.NewFetchError(ErrNoFetcher)
		return result
	}

	fctx := ctx
	if timeout := engine.timeout(); timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fav, err := engine.Fetcher.Fetch(fctx, target)
	if err != nil {
		result.Err = common.NewFetchError(err)
		logs.Log.Debugf("fetch %s: %s", target, err.Error())
		return result
	}
	engine.fill(result, fav)
	return result
}

// MatchAll probes every target with a bounded worker pool. Results come
// back in input order regardless of completion order. When ctx is
// cancelled mid run, finished targets keep their results and the rest
// are marked cancelled.
func (engine *Engine) MatchAll(ctx context.Context, targets []string) []*common.MatchResult {
	results := make([]*common.MatchResult, len(targets))

	threads := engine.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}
	swg := sizedwaitgroup.New(threads)

	var limiter *ratelimit.Limiter
	if engine.RateLimit > 0 {
		limiter = ratelimit.New(ctx, uint(engine.RateLimit), time.Second)
		defer limiter.Stop()
	}

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if limiter != nil {
			limiter.Take()
		}
		if err := swg.AddWithContext(ctx); err != nil {
			break
		}
		go func(i int, target string) {
			defer swg.Done()
			result := engine.MatchOne(ctx, target)
			results[i] = result
			if engine.OnResult != nil {
				engine.OnResult(result)
			}
		}(i, target)
	}
	swg.Wait()

	for i, target := range targets {
		if results[i] == nil {
			results[i] = &common.MatchResult{
				Target: target,
				Err:    &common.FetchError{Kind: common.KindCancelled, Err: context.Canceled},
			}
		}
	}
	return results
}

func (engine *Engine) fill(result *common.MatchResult, fav *fetch.Favicon) {
	result.FaviconURL = fav.URL
	result.Source = fav.Source
	result.TechHints = fav.TechHints
	result.Fingerprint = favicon.Mmh3Hash(fav.Data)
	result.MD5 = favicon.Md5Hash(fav.Data)
	result.SHA256 = favicon.Sha256Hash(fav.Data)

	labels := engine.Table.Lookup(result.Fingerprint)
	if labels == nil {
		labels = engine.Table.LookupMD5(result.MD5)
	}
	if len(labels) > 0 {
		result.Matched = true
		result.Labels = labels
	}
}

func (engine *Engine) timeout() time.Duration {
	if engine.Timeout < 0 {
		return 0
	}
	if engine.Timeout == 0 {
		return DefaultTimeout
	}
	return engine.Timeout
}
