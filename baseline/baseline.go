// Package baseline reads and writes finding-key snapshots and computes
// new/fixed deltas between runs.
package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

// Read loads the baseline at path relative to root. A missing file yields
// a nil Baseline and no error; a malformed file fails.
func Read(root, path string) (*model.Baseline, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var b model.Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &config.ParseError{Path: path, Err: err}
	}
	return &b, nil
}

// Write computes sorted, deduplicated finding keys from active and
// persists the versioned baseline record.
func Write(root, path string, createdAt string, score int, active []model.Finding) error {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}

	keys := uniqueSortedKeys(active)
	b := model.NewBaseline(createdAt, score, keys)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(full, data, 0o644)
}

func uniqueSortedKeys(findings []model.Finding) []string {
	seen := make(map[string]struct{}, len(findings))
	keys := make([]string, 0, len(findings))
	for _, f := range findings {
		k := f.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Diff computes new and fixed finding keys between the current active set
// and a prior baseline. A nil baseline is treated as having no keys at all
// (every current key is new).
func Diff(active []model.Finding, prior *model.Baseline) model.BaselineDiff {
	currentKeys := make(map[string]struct{}, len(active))
	for _, f := range active {
		currentKeys[f.Key()] = struct{}{}
	}

	var baselineKeys []string
	if prior != nil {
		baselineKeys = prior.FindingKeys
	}
	priorSet := make(map[string]struct{}, len(baselineKeys))
	for _, k := range baselineKeys {
		priorSet[k] = struct{}{}
	}

	var diff model.BaselineDiff
	for k := range currentKeys {
		if _, ok := priorSet[k]; !ok {
			diff.New = append(diff.New, k)
		}
	}
	for _, k := range baselineKeys {
		if _, ok := currentKeys[k]; !ok {
			diff.Fixed = append(diff.Fixed, k)
		}
	}
	sort.Strings(diff.New)
	sort.Strings(diff.Fixed)
	return diff
}

// KeySeverities builds the key->severity lookup CountNewAtSeverity needs,
// from the current active finding set.
func KeySeverities(active []model.Finding) map[string]model.Severity {
	m := make(map[string]model.Severity, len(active))
	for _, f := range active {
		m[f.Key()] = f.Severity
	}
	return m
}
