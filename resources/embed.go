//go:build !noembed && go1.16
// +build !noembed,go1.16

package resources

import (
	_ "embed"

	"github.com/chainreactors/utils/encode"
)

//go:embed fingerprint.csv
var FaviconData []byte // csv format, fingerprint,label rows

var CheckSum = map[string]string{
	"favicon": encode.Md5Hash(FaviconData),
}
