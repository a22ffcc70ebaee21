package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// BaseName strips directory and extension: "data/orders.csv" -> "orders".
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DerivedPath builds <dir>/<base of src>.<suffix>.<ext>, e.g. out/orders.rfm.csv.
func DerivedPath(dir, src, suffix, ext string) string {
	name := BaseName(src)
	if suffix != "" {
		name += "." + suffix
	}
	return filepath.Join(dir, name+"."+strings.TrimPrefix(ext, "."))
}

// TimestampedFilename returns <dir>/<name>_<YYYYMMDD_HHMMSS>.<ext> for the given instant.
func TimestampedFilename(dir, name, ext string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, at.Format("20060102_150405"), strings.TrimPrefix(ext, ".")))
}
