// Package pdf extracts text from briefing PDFs and opens rendered reports in
// a viewer.
package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener launches a PDF viewer.
type Opener struct {
	reader string
	goos   string
}

// NewOpener creates an opener for the named viewer ("system" when empty).
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = "system"
	}
	return &Opener{reader: reader, goos: runtime.GOOS}
}

// Open starts the viewer on path without waiting for it to exit.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file does not exist: %s", path)
		}
		return fmt.Errorf("checking PDF file: %w", err)
	}

	cmd, err := o.command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func (o *Opener) command(path string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		return o.darwinCommand(path), nil
	case "linux":
		return o.linuxCommand(path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

func (o *Opener) darwinCommand(path string) *exec.Cmd {
	switch o.reader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

func (o *Opener) linuxCommand(path string) *exec.Cmd {
	switch o.reader {
	case "zathura":
		return exec.Command("zathura", path)
	case "evince":
		return exec.Command("evince", path)
	case "okular":
		return exec.Command("okular", path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
