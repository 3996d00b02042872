package assetcache

import (
	"errors"
	"testing"
)

func setupComposeDir(t *testing.T) *Cache {
	t.Helper()

	cache, memFs, _, _ := setupTestCache(t)
	for _, name := range []string{"a.js", "b.js", "c.js", "d.js"} {
		createTestFile(t, memFs, "/proj/js/"+name, "// "+name, 900)
	}
	createTestFile(t, memFs, "/proj/js/notes.txt", "not a script", 900)
	createTestFile(t, memFs, "/proj/js/style.css", "body{}", 900)
	if err := memFs.MkdirAll("/proj/js/vendor", 0o755); err != nil {
		t.Fatal(err)
	}
	createTestFile(t, memFs, "/proj/js/vendor/nested.js", "// nested", 900)
	return cache
}

func TestResolve(t *testing.T) {
	t.Run("Priority first then scan order", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Priority:  []string{"b.js", "/proj/js/c.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/b.js", "/proj/js/c.js", "/proj/js/a.js", "/proj/js/d.js")
	})

	t.Run("Exclude by path and base name", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Exclude:   []string{"/proj/js/c.js", "a.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/b.js", "/proj/js/d.js")
	})

	t.Run("Output target is never a member", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/js/d.js",
			Directory: "/proj/js",
			Kind:      KindJS,
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/a.js", "/proj/js/b.js", "/proj/js/c.js")
	})

	t.Run("Generated artifacts of the target are skipped", func(t *testing.T) {
		cache := setupComposeDir(t)
		orphan := cache.hashedArtifactPath("/proj/js/all.min.js", 500)
		createTestFile(t, cache.Fs(), orphan, "old build", 500)

		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/js/all.min.js",
			Directory: "/proj/js",
			Kind:      KindJS,
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/a.js", "/proj/js/b.js", "/proj/js/c.js", "/proj/js/d.js")
	})

	t.Run("Selective mode ignores scan and exclude", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Files:     []string{"d.js", "/proj/js/a.js"},
			Exclude:   []string{"d.js"},
			Priority:  []string{"b.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/d.js", "/proj/js/a.js")
	})

	t.Run("Remote priority entries", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Priority:  []string{"//cdn.example.com/jquery.js", "https://cdn.example.com/lib"},
			Exclude:   []string{"a.js", "b.js", "c.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "http://cdn.example.com/jquery.js", "https://cdn.example.com/lib", "/proj/js/d.js")
		if !refs[0].Remote || !refs[1].Remote || refs[2].Remote {
			t.Fatalf("unexpected remote flags: %+v", refs)
		}
		if refs[1].Kind != KindJS {
			t.Fatalf("extensionless remote should adopt the target kind, got %q", refs[1].Kind)
		}
		if refs[2].Modified != 900 {
			t.Fatalf("expected local mtime 900, got %d", refs[2].Modified)
		}
	})

	t.Run("Duplicate priority entries collapse", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Priority:  []string{"b.js", "/proj/js/b.js"},
			Exclude:   []string{"a.js", "c.js", "d.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/b.js")
	})

	t.Run("Scanned files named like priority entries are dropped", func(t *testing.T) {
		cache := setupComposeDir(t)
		createTestFile(t, cache.Fs(), "/proj/vendor/c.js", "// vendored c", 900)

		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Priority:  []string{"/proj/vendor/c.js", "//cdn.example.com/lib/a.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/vendor/c.js", "http://cdn.example.com/lib/a.js", "/proj/js/b.js", "/proj/js/d.js")
	})

	t.Run("Selective duplicates are kept", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Files:     []string{"a.js", "b.js", "/proj/js/a.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/a.js", "/proj/js/b.js", "/proj/js/a.js")
	})

	t.Run("Relative entries prefer the merge directory", func(t *testing.T) {
		cache := setupComposeDir(t)
		createTestFile(t, cache.Fs(), "b.js", "// stray copy", 900)

		refs, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Files:     []string{"b.js"},
		})
		if err != nil {
			t.Fatal(err)
		}
		assertPaths(t, refs, "/proj/js/b.js")
	})

	t.Run("Missing directory yields empty membership", func(t *testing.T) {
		cache := setupComposeDir(t)
		refs, diags, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/nowhere",
			Kind:      KindJS,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 0 {
			t.Fatalf("expected no members, got %v", refPaths(refs))
		}
		if len(diags) != 1 {
			t.Fatalf("expected 1 diagnostic, got %v", diags)
		}
	})
}

func TestResolve_MixedKinds(t *testing.T) {
	t.Run("Fail fast", func(t *testing.T) {
		cache := setupComposeDir(t)
		_, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/js",
			Kind:      KindJS,
			Priority:  []string{"style.css", "other.css"},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if !errors.Is(err, ErrMixedKinds) {
			t.Fatalf("expected ErrMixedKinds, got %v", err)
		}
		if len(ve.Errors) != 1 {
			t.Fatalf("expected 1 error in fail-fast mode, got %d", len(ve.Errors))
		}
	})

	t.Run("Accumulate", func(t *testing.T) {
		cache, memFs, _, _ := setupTestCache(t, WithAccumulateErrors())
		createTestFile(t, memFs, "/proj/css/a.css", "a{}", 900)
		_, _, err := cache.Resolve(MergeSpec{
			Output:    "/proj/out/all.js",
			Directory: "/proj/css",
			Kind:      KindJS,
			Files:     []string{"a.css", "b.css", "c.js"},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(ve.Errors) != 2 {
			t.Fatalf("expected 2 errors, got %d: %v", len(ve.Errors), err)
		}
	})
}
