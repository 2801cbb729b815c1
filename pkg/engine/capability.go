package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gardar/ocrbridge/pkg/ocrbridge"
)

// LiveTextMinMajor is the first macOS major version with LiveText (Sonoma).
const LiveTextMinMajor = 14

// CheckMacCapability reports whether level can run on the given platform.
// goos is a runtime.GOOS value and macVersion the macOS product version
// (e.g. "14.2.1"); macVersion is only consulted for LevelLiveText.
func CheckMacCapability(level RecognitionLevel, goos, macVersion string) error {
	if goos != "darwin" {
		return fmt.Errorf("%w: ocrmac is only available on macOS, current platform: %s", ocrbridge.ErrUnsupportedCapability, goos)
	}
	if level != LevelLiveText {
		return nil
	}

	if macVersion == "" {
		return fmt.Errorf("%w: unable to determine macOS version, LiveText requires macOS Sonoma (%d.0) or later",
			ocrbridge.ErrUnsupportedCapability, LiveTextMinMajor)
	}
	major, err := strconv.Atoi(strings.SplitN(strings.TrimSpace(macVersion), ".", 2)[0])
	if err != nil {
		return fmt.Errorf("%w: invalid macOS version format: %q", ocrbridge.ErrUnsupportedCapability, macVersion)
	}
	if major < LiveTextMinMajor {
		return fmt.Errorf("%w: LiveText requires macOS Sonoma (%d.0) or later, current version: %s",
			ocrbridge.ErrUnsupportedCapability, LiveTextMinMajor, macVersion)
	}
	return nil
}

// MacOSVersion returns the product version reported by sw_vers.
func MacOSVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "sw_vers", "-productVersion").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run sw_vers: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
