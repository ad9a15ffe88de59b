// Package detect validates that a project has the expected app-router
// shape before the scanner runs any rules against it.
package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result reports whether root looks like a supported project, and if so,
// where its app directory lives and what kind of entry points it has.
type Result struct {
	OK               bool
	Reason           string
	AppDir           string
	HasRouteHandlers bool
	HasServerActions bool
}

// packageJSON is the subset of package.json fields the detector reads.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

var routeHandlerExts = []string{".ts", ".tsx", ".js", ".jsx"}

// Detect inspects root and returns whether it is a scannable project.
func Detect(root string) Result {
	pkgPath := filepath.Join(root, "package.json")
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return Result{Reason: "package.json not found"}
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Result{Reason: fmt.Sprintf("Failed to parse package.json: %s", err)}
	}

	if _, ok := pkg.Dependencies["next"]; !ok {
		if _, ok := pkg.DevDependencies["next"]; !ok {
			return Result{Reason: "next dependency not found"}
		}
	}

	appDir := ""
	for _, candidate := range []string{"app", filepath.Join("src", "app")} {
		full := filepath.Join(root, candidate)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			appDir = full
			break
		}
	}
	if appDir == "" {
		return Result{Reason: "app/ directory not found"}
	}

	hasRouteHandlers := false
	hasServerActions := false

	err = filepath.Walk(appDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if !containsExt(routeHandlerExts, ext) {
			return nil
		}

		base := strings.TrimSuffix(filepath.Base(path), ext)
		if base == "route" {
			hasRouteHandlers = true
		}

		if !hasServerActions {
			src, readErr := os.ReadFile(path)
			if readErr == nil && HasUseServerDirective(string(src)) {
				hasServerActions = true
			}
		}
		return nil
	})
	if err != nil {
		return Result{Reason: fmt.Sprintf("failed to walk app directory: %s", err)}
	}

	return Result{
		OK:               true,
		AppDir:           appDir,
		HasRouteHandlers: hasRouteHandlers,
		HasServerActions: hasServerActions,
	}
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// HasUseServerDirective reports whether the "use server" directive appears
// among the leading tokens of src, before any non-comment statement.
func HasUseServerDirective(src string) bool {
	text := src
	for {
		text = strings.TrimLeftFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		switch {
		case strings.HasPrefix(text, "//"):
			if idx := strings.IndexByte(text, '\n'); idx >= 0 {
				text = text[idx+1:]
				continue
			}
			return false
		case strings.HasPrefix(text, "/*"):
			if idx := strings.Index(text, "*/"); idx >= 0 {
				text = text[idx+2:]
				continue
			}
			return false
		case strings.HasPrefix(text, `"use server"`), strings.HasPrefix(text, `'use server'`):
			return true
		default:
			return false
		}
	}
}
