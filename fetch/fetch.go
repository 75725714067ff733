package fetch

import (
	"context"
)

// favicon provenance
const (
	SourceScraped  = "scraped"
	SourceFallback = "fallback"
	SourceDirect   = "direct"
	SourceData     = "data"
)

// Favicon is one retrieved icon plus where it came from. TechHints carry
// page level technology guesses when detection is enabled, they are
// context for the caller and never influence hashing.
type Favicon struct {
	Data      []byte
	URL       string
	Source    string
	TechHints []string
}

// Fetcher retrieves the favicon for a target. Implementations return
// common.ErrNotFound (possibly wrapped) when the target is reachable but
// serves no icon.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*Favicon, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, target string) (*Favicon, error)

func (f Func) Fetch(ctx context.Context, target string) (*Favicon, error) {
	return f(ctx, target)
}
