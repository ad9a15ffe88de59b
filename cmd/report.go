package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shipguard/shipguard/model"
	"github.com/shipguard/shipguard/output"
)

// renderReport encodes result in format ("text", "json", or "sarif") and
// writes it to outputFile, or stdout when outputFile is empty.
func renderReport(result model.ScanResult, format, outputFile string) error {
	var data []byte
	var err error

	switch format {
	case "json":
		data, err = output.RenderJSON(result)
	case "sarif":
		data, err = output.RenderSARIF(result)
	case "text", "":
		var buf bytes.Buffer
		output.RenderText(&buf, result)
		data = buf.Bytes()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}

	if outputFile != "" {
		return os.WriteFile(outputFile, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// writeSarifFile renders result to SARIF and writes it to path
// unconditionally, independent of the --output format the report itself
// used.
func writeSarifFile(result model.ScanResult, path string) error {
	data, err := output.RenderSARIF(result)
	if err != nil {
		return fmt.Errorf("failed to render SARIF: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
