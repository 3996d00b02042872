package assetcache

import (
	"fmt"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// TransformOptions controls how a single member is transformed.
type TransformOptions struct {
	Minify        bool // Full minification; false for remote (pre-optimized) members
	StripComments bool // Remove comments when not minifying
}

// Transformer maps the content of one member to its optimized form.
// Implementations must not have side effects visible to the cache.
type Transformer interface {
	Transform(content string, kind Kind, opts TransformOptions) (string, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(content string, kind Kind, opts TransformOptions) (string, error)

// Transform calls f.
func (f TransformerFunc) Transform(content string, kind Kind, opts TransformOptions) (string, error) {
	return f(content, kind, opts)
}

var (
	blockComment = regexp.MustCompile(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
	lineComment  = regexp.MustCompile(`(?m)^[ \t]*//.*$`)
)

// MinifyTransformer is the default Transformer, backed by tdewolff/minify.
type MinifyTransformer struct {
	m *minify.M
}

// NewMinifyTransformer returns a transformer that minifies CSS and JavaScript.
func NewMinifyTransformer() *MinifyTransformer {
	m := minify.New()
	m.AddFunc(mediaType(KindCSS), css.Minify)
	m.AddFunc(mediaType(KindJS), js.Minify)
	return &MinifyTransformer{m: m}
}

// Transform implements Transformer.
func (t *MinifyTransformer) Transform(content string, kind Kind, opts TransformOptions) (string, error) {
	if opts.Minify {
		out, err := t.m.String(mediaType(kind), content)
		if err != nil {
			return "", fmt.Errorf("minify %s: %w", kind, err)
		}
		return out, nil
	}
	if opts.StripComments {
		return stripComments(content, kind), nil
	}
	return content, nil
}

// stripComments removes block comments, and for JavaScript whole-line // comments.
func stripComments(content string, kind Kind) string {
	content = blockComment.ReplaceAllString(content, "")
	if kind == KindJS {
		content = lineComment.ReplaceAllString(content, "")
	}
	return content
}

func mediaType(kind Kind) string {
	switch kind {
	case KindCSS:
		return "text/css"
	case KindJS:
		return "application/javascript"
	}
	return string(kind)
}
