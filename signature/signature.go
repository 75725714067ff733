package signature

import (
	"github.com/rix4uni/favinfo/common"
)

// Entry binds one label to one hash. MD5 set means an md5 side entry,
// otherwise Fingerprint holds an mmh3 fingerprint.
type Entry struct {
	Fingerprint common.Fingerprint
	MD5         string
	Label       string
}

// Table is the compiled signature set. It is built once and never
// mutated afterwards, so lookups are safe from any goroutine.
type Table struct {
	mmh3 map[common.Fingerprint][]string
	md5  map[string][]string
}

func NewTable(entries []Entry) *Table {
	table := &Table{
		mmh3: make(map[common.Fingerprint][]string, len(entries)),
		md5:  make(map[string][]string),
	}
	for _, entry := range entries {
		if entry.MD5 != "" {
			table.md5[entry.MD5] = append(table.md5[entry.MD5], entry.Label)
		} else {
			table.mmh3[entry.Fingerprint] = append(table.mmh3[entry.Fingerprint], entry.Label)
		}
	}
	return table
}

// Lookup returns every label registered for the fingerprint, in source
// order, or nil when the fingerprint is unknown.
func (t *Table) Lookup(fp common.Fingerprint) []string {
	labels := t.mmh3[fp]
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

func (t *Table) LookupMD5(hash string) []string {
	labels := t.md5[hash]
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

func (t *Table) Len() int {
	return len(t.mmh3) + len(t.md5)
}

// Fingerprints lists the distinct mmh3 fingerprints the table knows.
func (t *Table) Fingerprints() []common.Fingerprint {
	fps := make([]common.Fingerprint, 0, len(t.mmh3))
	for fp := range t.mmh3 {
		fps = append(fps, fp)
	}
	return fps
}
