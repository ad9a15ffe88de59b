package cmd

import (
	"errors"

	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/output"
	"github.com/shipguard/shipguard/scan"
)

// exitCodeForError maps a pipeline error to the process exit code the spec
// assigns it. Anything unrecognized is a generic failure.
func exitCodeForError(err error) int {
	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return output.ExitConfigError
	}

	var detErr *scan.DetectorError
	if errors.As(err, &detErr) {
		return output.ExitDetectorError
	}

	var hookErr *scan.HookError
	if errors.As(err, &hookErr) {
		return hookErr.Result.ExitCode
	}

	return 1
}
