//go:build !go1.16 || noembed
// +build !go1.16 noembed

package resources

var FaviconData []byte

var CheckSum = map[string]string{}
