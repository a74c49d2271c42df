package shared

import (
	"errors"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	t.Run("rejects non-http schemes", func(t *testing.T) {
		for _, raw := range []string{"javascript:alert(1)", "file:///etc/passwd", "/relative/path", ""} {
			if err := OpenBrowser(raw); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("OpenBrowser(%q): expected ErrInvalidInput, got %v", raw, err)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		err := OpenBrowser("https://www.imdb.com/title/tt0133093/")
		if err == nil || err.Error() != "unsupported platform: plan9" {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	})
}
