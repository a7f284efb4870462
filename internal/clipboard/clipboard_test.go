package clipboard

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"
)

func withInstalled(t *testing.T, names ...string) {
	t.Helper()
	installed := make(map[string]bool)
	for _, n := range names {
		installed[n] = true
	}
	orig := lookPath
	lookPath = func(file string) (string, error) {
		if installed[file] {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		installed []string
		want      []string
	}{
		{"macOS", "darwin", []string{"pbcopy"}, []string{"pbcopy"}},
		{"wayland first", "linux", []string{"xclip", "wl-copy"}, []string{"wl-copy"}},
		{"xclip", "linux", []string{"xclip", "xsel"}, []string{"xclip", "-selection", "clipboard"}},
		{"xsel", "linux", []string{"xsel"}, []string{"xsel", "--clipboard", "--input"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withInstalled(t, tt.installed...)
			got, err := command(tt.goos)
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("command() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandUnavailable(t *testing.T) {
	withInstalled(t)
	for _, goos := range []string{"linux", "darwin", "plan9"} {
		if _, err := command(goos); !errors.Is(err, ErrClipboardUnavailable) {
			t.Errorf("command(%q) error = %v, want ErrClipboardUnavailable", goos, err)
		}
	}
}

func TestCopy(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}
	if err := Copy("Der Impfstoff wirkt sehr gut."); err != nil {
		t.Skipf("clipboard present but not usable here: %v", err)
	}
}
