package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainreactors/logs"
	"github.com/chainreactors/utils/encode"
	"github.com/rix4uni/favinfo/resources"
	"github.com/rix4uni/favinfo/signature"
)

// Maintenance tool for the embedded signature table. Converts community
// hash lists into the canonical csv form, so updating the shipped table
// is: transform -in <list> -out resources/fingerprint.csv && go build.
func main() {
	var (
		in  = flag.String("in", "", "Signature source to convert, csv/json/yaml file or URL, gz ok")
		out = flag.String("out", "resources/fingerprint.csv", "Output path")
		gz  = flag.Bool("gzip", false, "Gzip compress the output")
	)
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := resources.LoadResource(*in)
	if err != nil {
		logs.Log.Error(err.Error())
		os.Exit(1)
	}
	entries, err := signature.Parse(data, filepath.Ext(strings.TrimSuffix(*in, ".gz")))
	if err != nil {
		logs.Log.Error(err.Error())
		os.Exit(1)
	}
	entries = dedupe(entries)

	var buf bytes.Buffer
	skipped, err := signature.EncodeCSV(&buf, entries)
	if err != nil {
		logs.Log.Error(err.Error())
		os.Exit(1)
	}
	if skipped > 0 {
		logs.Log.Warnf("%d md5 entries have no csv form, skipped", skipped)
	}

	payload := buf.Bytes()
	if *gz {
		payload, err = encode.GzipCompress(payload)
		if err != nil {
			logs.Log.Error(err.Error())
			os.Exit(1)
		}
	}
	if err := os.WriteFile(*out, payload, 0644); err != nil {
		logs.Log.Error(err.Error())
		os.Exit(1)
	}
	logs.Log.Infof("wrote %d entries to %s, %d bytes", len(entries)-skipped, *out, len(payload))
}

// dedupe drops exact duplicate rows while keeping source order, so
// merged lists do not double up labels in the built table.
func dedupe(entries []signature.Entry) []signature.Entry {
	seen := make(map[signature.Entry]struct{}, len(entries))
	uniq := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		uniq = append(uniq, e)
	}
	return uniq
}
