package common

import (
	"strings"
)

// MatchResult is the outcome of probing a single target. A failed fetch
// leaves Fingerprint and the hash fields zero and records the error; an
// unmatched fingerprint leaves Labels nil with Matched false.
type MatchResult struct {
	Target      string      `json:"target"`
	FaviconURL  string      `json:"favicon_url,omitempty"`
	Source      string      `json:"source,omitempty"`
	Fingerprint Fingerprint `json:"fingerprint"`
	MD5         string      `json:"md5,omitempty"`
	SHA256      string      `json:"sha256,omitempty"`
	Matched     bool        `json:"matched"`
	Labels      []string    `json:"labels,omitempty"`
	TechHints   []string    `json:"tech_hints,omitempty"`
	Err         *FetchError `json:"error,omitempty"`
}

type ResultCallback func(*MatchResult)

func (r *MatchResult) Failed() bool {
	return r.Err != nil
}

func (r *MatchResult) String() string {
	var s strings.Builder
	s.WriteString(r.Target)
	if r.Err != nil {
		s.WriteString(" [")
		s.WriteString(r.Err.Error())
		s.WriteString("]")
		return s.String()
	}
	s.WriteString(" [")
	s.WriteString(r.Fingerprint.String())
	s.WriteString("]")
	if r.Matched {
		s.WriteString(" [")
		s.WriteString(strings.Join(r.Labels, " "))
		s.WriteString("]")
	}
	if len(r.TechHints) > 0 {
		s.WriteString(" [")
		s.WriteString(strings.Join(r.TechHints, " "))
		s.WriteString("]")
	}
	return s.String()
}
