package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rix4uni/favinfo/common"
)

// Templates maps a search engine to its favicon query syntax. Every
// template takes the sign-inclusive decimal fingerprint exactly once.
var Templates = map[string]string{
	"shodan":  "http.favicon.hash:%s",
	"fofa":    `icon_hash="%s"`,
	"zoomeye": `iconhash:"%s"`,
	"censys":  "services.http.response.favicon.hashes:%s",
}

// Format renders the pivot query for any fingerprint, matched or not.
// Unknown hashes are still worth hunting, so this is what the CLI calls.
// Returns the empty string when the service is unknown.
func Format(service string, fp common.Fingerprint) string {
	tpl, ok := Templates[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tpl, fp)
}

// Emit renders the pivot query for a matched result. An unmatched or
// failed result yields the empty string, there is no query to issue.
func Emit(result *common.MatchResult, service string) string {
	if result == nil || !result.Matched {
		return ""
	}
	return Format(service, result.Fingerprint)
}

// Services lists the supported search engines in stable order.
func Services() []string {
	services := make([]string, 0, len(Templates))
	for service := range Templates {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}
