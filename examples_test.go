package assetcache_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gophersatwork/assetcache"
	"github.com/spf13/afero"
)

func TestStylesheetBundle(t *testing.T) {
	isDebug := false // Set to true when you want to troubleshoot issues visually.
	now := fixedNowFunc()
	cache := assetcache.OpenTemp(assetcache.WithNowFunc(func() time.Time { return now }))
	fs := cache.Fs()

	styles := []struct {
		name    string
		content string
	}{
		{"reset.css", "html, body { margin: 0; padding: 0; }\n"},
		{"layout.css", "/* grid */\n.grid { display: grid; }\n"},
		{"theme.css", ".btn { color: #ff0000; }\n"},
		{"print.css", "@media print { .btn { display: none; } }\n"},
	}
	for _, s := range styles {
		path := filepath.Join("/site/css", s.name)
		if err := afero.WriteFile(fs, path, []byte(s.content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", s.name, err)
		}
		old := now.Add(-time.Hour)
		if err := fs.Chtimes(path, old, old); err != nil {
			t.Fatalf("Failed to set mtime on %s: %v", s.name, err)
		}
	}

	req := assetcache.MergeRequest{
		Output:   "/site/css/bundle.css",
		Priority: []string{"reset.css"},
		Exclude:  []string{"print.css"},
		Version:  "3",
	}

	res, err := cache.Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to build bundle: %v", err)
	}

	if isDebug {
		spew.Dump(res.Record())
		printDirTree(fs, "/site")
	}

	var names []string
	for _, m := range res.Members() {
		names = append(names, m.Name())
	}
	if strings.Join(names, ",") != "reset.css,layout.css,theme.css" {
		t.Fatalf("Unexpected bundle order %v", names)
	}
	if !strings.HasSuffix(res.URL(), "?v=3") {
		t.Fatalf("Expected versioned URL, got %s", res.URL())
	}

	bundle, err := afero.ReadFile(fs, res.Path())
	if err != nil {
		t.Fatalf("Failed to read bundle: %v", err)
	}
	expectedHead := "/*\n * bundle.css generated 2020-03-01T00:00:00Z\n *\n * Contents:\n *  1. reset.css\n *  2. layout.css\n *  3. theme.css\n */\n"
	if !strings.HasPrefix(string(bundle), expectedHead) {
		t.Fatalf("Unexpected bundle header:\n%s", bundle)
	}
	if !strings.Contains(string(bundle), "/* Source file: theme.css */\n.btn{color:red}") {
		t.Fatalf("Expected minified member in bundle:\n%s", bundle)
	}

	// Editing a member later yields a new physical name.
	now = now.Add(time.Minute)
	if err := afero.WriteFile(fs, "/site/css/theme.css", []byte(".btn { color: blue; }"), 0o644); err != nil {
		t.Fatalf("Failed to update theme: %v", err)
	}
	edited := now.Add(-time.Second)
	if err := fs.Chtimes("/site/css/theme.css", edited, edited); err != nil {
		t.Fatalf("Failed to set mtime: %v", err)
	}

	next, err := cache.Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to rebuild bundle: %v", err)
	}
	if !next.Regenerated() || next.Path() == res.Path() {
		t.Fatalf("Expected a rebuilt bundle under a new name, got %s", next.Path())
	}

	removed, err := cache.Sweep(req.Output)
	if err != nil {
		t.Fatalf("Failed to sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("Expected 1 orphan removed, got %d", removed)
	}

	if isDebug {
		printDirTree(fs, "/site")
	}
}

func TestScriptMinify(t *testing.T) {
	isDebug := false // Set to true when you want to troubleshoot issues visually.
	memFs := afero.NewMemMapFs()

	cache, err := assetcache.Open(
		assetcache.WithFs(memFs),
		assetcache.WithNowFunc(fixedNowFunc),
	)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	src := "/app/js/app.js"
	content := "function greet(name) {\n  // say hello\n  return 'hello ' + name;\n}\n"
	if err := memFs.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := afero.WriteFile(memFs, src, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	written := fixedNowFunc().Add(-time.Hour)
	if err := memFs.Chtimes(src, written, written); err != nil {
		t.Fatalf("Failed to set mtime: %v", err)
	}

	res, err := cache.Minify(context.Background(), assetcache.MinifyRequest{Source: src})
	if err != nil {
		t.Fatalf("Failed to minify: %v", err)
	}

	if isDebug {
		spew.Dump(res)
	}

	// Without hashed names the artifact lives at its logical target.
	if res.Path() != "/app/js/app.min.js" {
		t.Fatalf("Unexpected artifact path %s", res.Path())
	}
	out, err := afero.ReadFile(memFs, res.Path())
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	if strings.Contains(string(out), "say hello") || !strings.Contains(string(out), "function greet(") {
		t.Fatalf("Unexpected minified output:\n%s", out)
	}

	again, err := cache.Minify(context.Background(), assetcache.MinifyRequest{Source: src})
	if err != nil {
		t.Fatalf("Failed to minify: %v", err)
	}
	if again.Regenerated() {
		t.Fatalf("Expected the current artifact to be reused")
	}
}

func printDirTree(fs afero.Fs, path string) error {
	err := afero.Walk(fs, path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if p == path {
			return nil
		}

		depth := strings.Count(p, string(os.PathSeparator))
		indent := strings.Repeat("│   ", depth-1)

		name := info.Name()
		if info.IsDir() {
			fmt.Printf("%s├── 📁 %s\n", indent, name)
		} else {
			fmt.Printf("%s├── 📄 %s\n", indent, name)
		}

		return nil
	})
	if err != nil {
		log.Fatalf("Failed to inspect the folder: %v", err)
	}

	return nil
}

func fixedNowFunc() time.Time {
	return time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
}
