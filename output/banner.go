package output

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// BannerOptions configures the startup banner display.
type BannerOptions struct {
	ShowBanner  bool // Show ASCII art logo
	ShowVersion bool // Show version information
	ShowLicense bool // Show license information
}

// DefaultBannerOptions returns default banner configuration.
func DefaultBannerOptions() BannerOptions {
	return BannerOptions{
		ShowBanner:  true,
		ShowVersion: true,
		ShowLicense: true,
	}
}

// PrintBanner displays the shipguard logo and information.
func PrintBanner(w io.Writer, version string, opts BannerOptions) {
	if w == nil {
		return
	}

	if !opts.ShowBanner {
		if opts.ShowVersion {
			fmt.Fprintf(w, "Shipguard v%s\n", version)
		}
		if opts.ShowLicense {
			fmt.Fprintf(w, "Apache-2.0 License | https://github.com/shipguard/shipguard\n")
		}
		fmt.Fprintln(w)
		return
	}

	asciiArt := GetASCIILogo()
	fmt.Fprintln(w, asciiArt)

	if opts.ShowVersion {
		fmt.Fprintf(w, "Shipguard v%s\n", version)
	}

	if opts.ShowLicense {
		fmt.Fprintln(w, "Apache-2.0 License | https://github.com/shipguard/shipguard")
	}

	fmt.Fprintln(w)
}

// GetASCIILogo generates the ASCII art logo for "Shipguard".
func GetASCIILogo() string {
	fig := figure.NewFigure("Shipguard", "standard", true)
	return fig.String()
}

// GetCompactBanner returns a single-line banner for non-TTY output.
func GetCompactBanner(version string) string {
	return fmt.Sprintf("Shipguard v%s | Apache-2.0 | https://github.com/shipguard/shipguard", version)
}

// ShouldShowBanner determines if banner should be displayed.
func ShouldShowBanner(isTTY bool, noBannerFlag bool) bool {
	if noBannerFlag {
		return false
	}
	return isTTY
}
