package assetcache

import (
	"strings"
	"testing"
)

func TestMinifyTransformer(t *testing.T) {
	tr := NewMinifyTransformer()

	t.Run("CSS", func(t *testing.T) {
		out, err := tr.Transform("body { color: red; }", KindCSS, TransformOptions{Minify: true})
		if err != nil {
			t.Fatal(err)
		}
		if out != "body{color:red}" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("JavaScript", func(t *testing.T) {
		src := "// leading comment\nvar  total = 1 ;\n/* block */\nconsole.log( total );\n"
		out, err := tr.Transform(src, KindJS, TransformOptions{Minify: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) >= len(src) || strings.Contains(out, "comment") || strings.Contains(out, "block") {
			t.Fatalf("expected minified output, got %q", out)
		}
		if !strings.Contains(out, "console.log(") {
			t.Fatalf("expected statements to survive, got %q", out)
		}
	})

	t.Run("Invalid JavaScript", func(t *testing.T) {
		if _, err := tr.Transform("var = ;", KindJS, TransformOptions{Minify: true}); err == nil {
			t.Fatal("expected a minification error")
		}
	})

	t.Run("Strip comments only", func(t *testing.T) {
		out, err := tr.Transform("/* c */a { }\n", KindCSS, TransformOptions{StripComments: true})
		if err != nil {
			t.Fatal(err)
		}
		if out != "a { }\n" {
			t.Fatalf("unexpected output %q", out)
		}

		out, err = tr.Transform("// line\nvar u = 'http://x';\n/* b */", KindJS, TransformOptions{StripComments: true})
		if err != nil {
			t.Fatal(err)
		}
		if out != "\nvar u = 'http://x';\n" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("Passthrough", func(t *testing.T) {
		src := "/* keep */ a { }"
		out, err := tr.Transform(src, KindCSS, TransformOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if out != src {
			t.Fatalf("expected passthrough, got %q", out)
		}
	})
}

func TestTransformerFunc(t *testing.T) {
	var got TransformOptions
	f := TransformerFunc(func(content string, kind Kind, opts TransformOptions) (string, error) {
		got = opts
		return strings.ToUpper(content), nil
	})

	out, err := f.Transform("abc", KindJS, TransformOptions{Minify: true})
	if err != nil || out != "ABC" || !got.Minify {
		t.Fatalf("unexpected result %q, %v, %+v", out, err, got)
	}
}
