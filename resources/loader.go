package resources

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadResource reads a signature source from a local file path or an
// HTTP/HTTPS URL.
func LoadResource(path string) ([]byte, error) {
	if _, err := os.Stat(path); err == nil {
		return os.ReadFile(path)
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, errors.Wrap(err, "fetch resource")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("fetch resource: bad status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}

	return nil, errors.Errorf("invalid resource path %s, not a file or URL", path)
}
