package security

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadExtensions reads administratively added truth extensions from a JSON
// file. A missing path returns no extensions; a malformed file is an error so
// a bad deploy cannot silently drop truths.
func LoadExtensions(path string) ([]TruthExtension, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read truths file: %w", err)
	}

	var exts []TruthExtension
	if err := json.Unmarshal(data, &exts); err != nil {
		return nil, fmt.Errorf("parse truths file %s: %w", path, err)
	}

	for i, ext := range exts {
		if ext.Truth.Key == "" || ext.Truth.Statement == "" {
			return nil, fmt.Errorf("truths file %s: extension %d missing key or statement", path, i)
		}
	}
	return exts, nil
}
