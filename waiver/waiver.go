// Package waiver loads, persists, and applies waivers: time-bounded
// exceptions suppressing a specific (ruleId, file) pair.
package waiver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/model"
)

// Load reads the waivers file at path relative to root. A missing file
// yields an empty slice, not an error. It accepts both the versioned
// {version, waivers} shape and a bare legacy array.
func Load(root, path string) ([]model.Waiver, error) {
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

	var versioned model.WaiversFile
	if err := json.Unmarshal(data, &versioned); err == nil && versioned.Waivers != nil {
		return versioned.Waivers, nil
	}

	var legacy []model.Waiver
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, &config.ParseError{Path: path, Err: err}
	}
	return legacy, nil
}

// Save writes waivers in the versioned form, stable field order, 2-space
// indent, trailing newline.
func Save(root, path string, waivers []model.Waiver) error {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}
	if waivers == nil {
		waivers = []model.Waiver{}
	}
	data, err := json.MarshalIndent(model.NewWaiversFile(waivers), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(full, data, 0o644)
}

// Add appends w with createdAt set to now, persists the full set, and
// returns the stored record. Duplicates are permitted; matching collapses
// them at apply time.
func Add(root, path string, waivers []model.Waiver, w model.Waiver, now time.Time) (model.Waiver, []model.Waiver, error) {
	w.CreatedAt = now
	updated := append(append([]model.Waiver{}, waivers...), w)
	if err := Save(root, path, updated); err != nil {
		return w, waivers, err
	}
	return w, updated, nil
}

type key struct {
	ruleID string
	file   string
}

// Apply partitions findings into (active, waived) at instant now. A
// finding is waived iff some waiver exists with identical ruleId and file
// and is active at now. Runs in O(F+W) via a (ruleId,file) index.
func Apply(findings []model.Finding, waivers []model.Waiver, now time.Time) (active, waived []model.Finding) {
	index := make(map[key][]model.Waiver, len(waivers))
	for _, w := range waivers {
		k := key{w.RuleID, w.File}
		index[k] = append(index[k], w)
	}

	for _, f := range findings {
		k := key{f.RuleID, f.File}
		isWaived := false
		for _, w := range index[k] {
			if w.Active(now) {
				isWaived = true
				break
			}
		}
		if isWaived {
			waived = append(waived, f)
		} else {
			active = append(active, f)
		}
	}
	return active, waived
}
