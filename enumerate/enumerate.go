// Package enumerate walks a project directory and yields the candidate
// files a scan should run rules over, honouring include/exclude globs.
package enumerate

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Files walks root from appDir downward and returns project-relative,
// forward-slash paths matching at least one include glob and no exclude
// glob. The result is sorted for deterministic downstream processing.
func Files(root, appDir string, include, exclude []string) ([]string, error) {
	includeRe := compileGlobs(include)
	excludeRe := compileGlobs(exclude)

	var matches []string
	err := filepath.Walk(appDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = toSlash(rel)

		if !matchesAny(includeRe, rel) {
			return nil
		}
		if matchesAny(excludeRe, rel) {
			return nil
		}
		matches = append(matches, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

func matchesAny(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func compileGlobs(globs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(globs))
	for _, g := range globs {
		out = append(out, regexp.MustCompile(globToRegexp(g)))
	}
	return out
}

// globToRegexp translates the enumerator's glob grammar into an anchored
// regexp: "*" matches a run of non-separator characters, "**" matches any
// run of characters including separators, and every other regexp
// metacharacter is escaped literally.
func globToRegexp(glob string) string {
	glob = toSlash(glob)
	var sb strings.Builder
	sb.WriteByte('^')

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				sb.WriteString(".*")
				i++
			} else {
				sb.WriteString("[^/]*")
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	sb.WriteByte('$')
	return sb.String()
}
