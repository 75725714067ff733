package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	wappalyzer "github.com/projectdiscovery/wappalyzergo"
	"github.com/rix4uni/favinfo/common"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"
	DefaultTimeout   = 10 * time.Second

	maxBodySize = 4 << 20
)

// NewClient builds the http client the fetcher uses by default, proxy
// aware and with an overall request timeout.
func NewClient(timeout time.Duration, insecure bool) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
	}
}

// HTTPFetcher discovers favicons the way a browser would: icon links in
// the page head first, /favicon.ico as the fallback. Targets pointing
// straight at an icon file are downloaded as is.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Tech      *wappalyzer.Wappalyze
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = NewClient(DefaultTimeout, false)
	}
	return &HTTPFetcher{
		Client:    client,
		UserAgent: DefaultUserAgent,
	}
}

// EnableTechDetect loads the wappalyzer ruleset so fetched pages also
// yield technology hints.
func (f *HTTPFetcher) EnableTechDetect() error {
	tech, err := wappalyzer.New()
	if err != nil {
		return errors.Wrap(err, "load wappalyzer rules")
	}
	f.Tech = tech
	return nil
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Favicon, error) {
	target = NormalizeTarget(target)
	base, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid target %s", target)
	}

	if isIconPath(base.Path) {
		data, err := f.download(ctx, target)
		if err != nil {
			return nil, err
		}
		return &Favicon{Data: data, URL: target, Source: SourceDirect}, nil
	}

	body, header, finalURL, err := f.fetchPage(ctx, target)
	if err != nil {
		return nil, err
	}
	hints := f.techHints(header, body)

	for _, cand := range discover(body, finalURL) {
		if cand.data != nil {
			return &Favicon{Data: cand.data, URL: cand.url, Source: SourceData, TechHints: hints}, nil
		}
		data, err := f.download(ctx, cand.url)
		if err != nil {
			continue
		}
		return &Favicon{Data: data, URL: cand.url, Source: SourceScraped, TechHints: hints}, nil
	}

	fallback := finalURL.ResolveReference(&url.URL{Path: "/favicon.ico"}).String()
	data, err := f.download(ctx, fallback)
	if err != nil {
		switch common.ClassifyError(err) {
		case common.KindTimeout, common.KindCancelled, common.KindConnection:
			return nil, err
		}
		return nil, errors.Wrap(common.ErrNotFound, target)
	}
	return &Favicon{Data: data, URL: fallback, Source: SourceFallback, TechHints: hints}, nil
}

// fetchPage downloads the target page. The response status is not
// checked, error pages still reference icons worth hashing.
func (f *HTTPFetcher) fetchPage(ctx context.Context, target string) ([]byte, http.Header, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "invalid target %s", target)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, nil, err
	}
	return body, resp.Header, resp.Request.URL, nil
}

func (f *HTTPFetcher) download(ctx context.Context, iconURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid favicon url %s", iconURL)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrap(common.ErrNotFound, iconURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d for %s", resp.StatusCode, iconURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func (f *HTTPFetcher) techHints(header http.Header, body []byte) []string {
	if f.Tech == nil {
		return nil
	}
	apps := f.Tech.Fingerprint(header, body)
	if len(apps) == 0 {
		return nil
	}
	hints := make([]string, 0, len(apps))
	for app := range apps {
		hints = append(hints, app)
	}
	sort.Strings(hints)
	return hints
}

type candidate struct {
	url  string
	data []byte
}

// discover collects icon references from the page head in document order,
// .ico links first. Inline data: icons are decoded on the spot.
func discover(body []byte, base *url.URL) []candidate {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	var candidates []candidate
	seen := make(map[string]bool)
	doc.Find("link[rel~='icon'], link[rel~='apple-touch-icon'], link[rel~='mask-icon']").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		if strings.HasPrefix(href, "data:") {
			if data := decodeDataIcon(href); data != nil {
				candidates = append(candidates, candidate{url: "data:favicon", data: data})
			}
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := trimIconSuffix(base.ResolveReference(ref).String())
		if seen[abs] {
			return
		}
		seen[abs] = true
		candidates = append(candidates, candidate{url: abs})
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return strings.HasSuffix(candidates[i].url, ".ico") && !strings.HasSuffix(candidates[j].url, ".ico")
	})
	return candidates
}

func decodeDataIcon(href string) []byte {
	_, payload, ok := strings.Cut(href, "base64,")
	if !ok {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return data
}

// trimIconSuffix drops whatever trails the icon extension, usually cache
// busting query strings.
func trimIconSuffix(u string) string {
	if before, _, ok := strings.Cut(u, ".png"); ok {
		return before + ".png"
	}
	if before, _, ok := strings.Cut(u, ".ico"); ok {
		return before + ".ico"
	}
	return u
}

func isIconPath(path string) bool {
	path = strings.ToLower(path)
	return strings.HasSuffix(path, ".ico") || strings.HasSuffix(path, ".png")
}

// NormalizeTarget defaults bare host targets to plain http.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return target
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "http://" + target
	}
	return target
}
