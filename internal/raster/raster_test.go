package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/notas/internal/testutil"
)

// fakeRenderer writes a script that mimics pdftoppm: it records its arguments
// and writes "<prefix>.png".
func fakeRenderer(t *testing.T) (command, argsLog string) {
	t.Helper()
	argsLog = filepath.Join(t.TempDir(), "args.log")
	command = testutil.Script(t, "pdftoppm",
		"echo \"$@\" >> '"+argsLog+"'\nfor last; do :; done\nprintf 'PNG-%s' \"$3\" > \"$last.png\"\n")
	return command, argsLog
}

func TestPoppler_Pages(t *testing.T) {
	command, argsLog := fakeRenderer(t)
	p := NewPoppler(PopplerConfig{Command: command, DPI: 300})
	p.countPages = func(string) (int, error) { return 3, nil }

	var pages []Page
	for page, err := range p.Pages(context.Background(), "/in/nota.pdf") {
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		pages = append(pages, page)
	}

	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, page := range pages {
		if page.Number != i+1 {
			t.Errorf("page %d Number = %d", i, page.Number)
		}
		want := "PNG-" + string(rune('1'+i))
		if string(page.Image) != want {
			t.Errorf("page %d Image = %q, want %q", i, page.Image, want)
		}
	}

	args, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(args), "-r 300") || !strings.Contains(string(args), "/in/nota.pdf") {
		t.Errorf("unexpected renderer args: %s", args)
	}
}

func TestPoppler_PagesStopsEarly(t *testing.T) {
	command, argsLog := fakeRenderer(t)
	p := NewPoppler(PopplerConfig{Command: command})
	p.countPages = func(string) (int, error) { return 5, nil }

	for range p.Pages(context.Background(), "nota.pdf") {
		break
	}

	args, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(args), "\n"); got != 1 {
		t.Errorf("renderer ran %d times, want 1", got)
	}
	if !strings.Contains(string(args), "-r 216") {
		t.Errorf("expected default dpi, got args: %s", args)
	}
}

func TestPoppler_Errors(t *testing.T) {
	t.Run("page count failure", func(t *testing.T) {
		p := NewPoppler(PopplerConfig{})
		p.countPages = func(string) (int, error) { return 0, errors.New("corrupt xref") }
		assertSingleError(t, p, "corrupt xref")
	})

	t.Run("empty document", func(t *testing.T) {
		p := NewPoppler(PopplerConfig{})
		p.countPages = func(string) (int, error) { return 0, nil }
		assertSingleError(t, p, "no pages")
	})

	t.Run("renderer failure", func(t *testing.T) {
		p := NewPoppler(PopplerConfig{Command: filepath.Join(t.TempDir(), "missing-binary")})
		p.countPages = func(string) (int, error) { return 2, nil }
		assertSingleError(t, p, "failed to render page 1")
	})
}

func assertSingleError(t *testing.T, p *Poppler, want string) {
	t.Helper()
	var errs []error
	for _, err := range p.Pages(context.Background(), "nota.pdf") {
		errs = append(errs, err)
	}
	if len(errs) != 1 || errs[0] == nil {
		t.Fatalf("got %v, want a single error", errs)
	}
	if !strings.Contains(errs[0].Error(), want) {
		t.Errorf("error = %v, want it to contain %q", errs[0], want)
	}
}

func TestPageCount_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := PageCount(path); err == nil {
		t.Error("PageCount() on garbage should fail")
	}
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("PageCount() on missing file should fail")
	}
}
