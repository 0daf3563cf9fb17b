package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TimestampLayout is appended to export file names.
const TimestampLayout = "20060102_150405"

// Exporter writes result documents to timestamped files.
type Exporter struct {
	Dir    string
	Format string
	Now    func() time.Time
}

// Write serialises v to <Dir>/<name>_<timestamp>.<format> and returns the path.
func (e Exporter) Write(name string, v any) (string, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	format := strings.ToLower(e.Format)
	if format == "" {
		format = FormatJSON
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		return "", fmt.Errorf("unsupported export format %q (available: json, yaml)", e.Format)
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, now().Format(TimestampLayout), format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
