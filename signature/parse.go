package signature

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainreactors/utils/encode"
	"github.com/pkg/errors"
	"github.com/rix4uni/favinfo/common"
	"github.com/rix4uni/favinfo/resources"
	"gopkg.in/yaml.v3"
)

var gzipMagic = []byte{0x1f, 0x8b}

// ParseCSV reads "fingerprint,label" rows. The header row is required,
// lines starting with '#' are comments. Any malformed row fails the whole
// parse.
func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty signature source")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read signature header")
	}
	if strings.TrimSpace(header[0]) != "fingerprint" || strings.TrimSpace(header[1]) != "label" {
		return nil, errors.Errorf("unexpected header %q, want fingerprint,label", strings.Join(header, ","))
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read signature record")
		}
		fp, err := common.ParseFingerprint(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, err
		}
		label := strings.TrimSpace(record[1])
		if label == "" {
			return nil, errors.Errorf("empty label for fingerprint %s", fp)
		}
		entries = append(entries, Entry{Fingerprint: fp, Label: label})
	}
	return entries, nil
}

// ParseJSON reads the legacy flat map format, fingerprint string to label.
// Map sources carry no row order, entries come out sorted by key.
func ParseJSON(data []byte) ([]Entry, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid json signature source")
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(raw))
	for _, k := range keys {
		fp, err := common.ParseFingerprint(strings.TrimSpace(k))
		if err != nil {
			return nil, err
		}
		label := strings.TrimSpace(raw[k])
		if label == "" {
			return nil, errors.Errorf("empty label for fingerprint %s", fp)
		}
		entries = append(entries, Entry{Fingerprint: fp, Label: label})
	}
	return entries, nil
}

type yamlSignature struct {
	Name    string `yaml:"name"`
	Favicon struct {
		Mmh3 []string `yaml:"mmh3,omitempty"`
		Md5  []string `yaml:"md5,omitempty"`
	} `yaml:"favicon"`
}

// ParseYAML reads finger style signatures, a list of named entries each
// carrying mmh3 and md5 hash lists.
func ParseYAML(data []byte) ([]Entry, error) {
	var sigs []yamlSignature
	if err := yaml.Unmarshal(data, &sigs); err != nil {
		return nil, errors.Wrap(err, "invalid yaml signature source")
	}

	var entries []Entry
	for _, sig := range sigs {
		if sig.Name == "" {
			return nil, errors.New("yaml signature with empty name")
		}
		for _, raw := range sig.Favicon.Mmh3 {
			fp, err := common.ParseFingerprint(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Fingerprint: fp, Label: sig.Name})
		}
		for _, hash := range sig.Favicon.Md5 {
			hash = strings.ToLower(strings.TrimSpace(hash))
			if hash == "" {
				return nil, errors.Errorf("empty md5 hash for %s", sig.Name)
			}
			entries = append(entries, Entry{MD5: hash, Label: sig.Name})
		}
	}
	return entries, nil
}

// Parse dispatches raw signature data to the parser for the named format:
// csv, json, yaml. Gzip compressed sources are decompressed transparently.
func Parse(data []byte, format string) ([]Entry, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		var err error
		data, err = encode.GzipDecompress(data)
		if err != nil {
			return nil, errors.Wrap(err, "decompress signature source")
		}
	}

	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "csv", "":
		return ParseCSV(bytes.NewReader(data))
	case "json":
		return ParseJSON(data)
	case "yaml", "yml":
		return ParseYAML(data)
	default:
		return nil, errors.Errorf("unknown signature format %q", format)
	}
}

// Decode parses raw signature data and builds the lookup table from it.
func Decode(data []byte, format string) (*Table, error) {
	entries, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return NewTable(entries), nil
}

// EncodeCSV writes entries in the canonical csv form, the format the
// embedded table ships in. Md5 entries have no csv column and are
// skipped, their count is returned.
func EncodeCSV(w io.Writer, entries []Entry) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"fingerprint", "label"}); err != nil {
		return 0, errors.Wrap(err, "write signature header")
	}
	skipped := 0
	for _, e := range entries {
		if e.MD5 != "" {
			skipped++
			continue
		}
		if err := writer.Write([]string{e.Fingerprint.String(), e.Label}); err != nil {
			return skipped, errors.Wrap(err, "write signature record")
		}
	}
	writer.Flush()
	return skipped, errors.Wrap(writer.Error(), "flush signature records")
}

// Load reads a signature source from a file path or URL and picks the
// parser from its extension. A trailing .gz is stripped before the format
// is decided.
func Load(path string) (*Table, error) {
	data, err := resources.LoadResource(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load signature source %s", path)
	}
	return Decode(data, filepath.Ext(strings.TrimSuffix(path, ".gz")))
}

// Default builds the table shipped with the binary.
func Default() (*Table, error) {
	if len(resources.FaviconData) == 0 {
		return nil, errors.New("no embedded signature data, rebuild without the noembed tag or pass a source file")
	}
	return Decode(resources.FaviconData, "csv")
}
