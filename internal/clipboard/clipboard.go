// Package clipboard copies report text to the system clipboard via shell
// commands.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard command is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// candidates lists clipboard writers per platform, in order of preference.
var candidates = map[string][][]string{
	"darwin": {{"pbcopy"}},
	"linux": {
		{"wl-copy"},
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	},
	"windows": {{"clip.exe"}},
}

// command returns the argv of the first installed clipboard writer for goos.
func command(goos string) ([]string, error) {
	for _, argv := range candidates[goos] {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable reports whether a clipboard writer is installed.
func IsAvailable() bool {
	_, err := command(runtime.GOOS)
	return err == nil
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	argv, err := command(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
