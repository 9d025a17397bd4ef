package templates

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	g "github.com/maragudk/gomponents"
)

// Markdown renders src to HTML. Untrusted input (comments) gets raw HTML
// stripped and unsafe links disabled.
func Markdown(src string, trusted bool) g.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)

	flags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank
	if !trusted {
		flags |= mdhtml.SkipHTML | mdhtml.Safelink
	}
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: flags})

	return g.Raw(string(markdown.ToHTML([]byte(src), p, renderer)))
}

type AvatarOptions struct {
	Size    int
	Default string
}

// GravatarURL builds the avatar image address for email.
func GravatarURL(email string, opts AvatarOptions) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	size := opts.Size
	if size <= 0 {
		size = 100
	}
	fallback := opts.Default
	if fallback == "" {
		fallback = "retro"
	}
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=%s&r=g", sum, size, url.QueryEscape(fallback))
}
