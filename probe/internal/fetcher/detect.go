package fetcher

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Thresholds for IsSufficient.
const (
	minSize      = 256
	minText      = 200
	minTextRatio = 0.10
)

// mountIDs are the ids frameworks render into.
var mountIDs = map[string]bool{"root": true, "app": true, "__next": true, "__nuxt": true, "svelte": true}

// IsSufficient reports whether the HTML carries enough server-rendered
// content to be analysed without running its scripts. It fails for short
// bodies, bodies that are mostly markup, empty framework mount points and
// "enable JavaScript" notices.
func IsSufficient(body []byte) bool {
	if len(body) < minSize {
		return false
	}
	s := scan(body)
	if s.emptyMount || s.jsNotice {
		return false
	}
	total := s.text + s.markup
	if total == 0 || s.text < minText {
		return false
	}
	return float64(s.text)/float64(total) >= minTextRatio
}

type scanResult struct {
	text, markup int
	emptyMount   bool
	jsNotice     bool
}

// scan tokenises body, counting visible text bytes (whitespace excluded,
// script and style bodies counted as markup).
func scan(body []byte) scanResult {
	var r scanResult
	z := html.NewTokenizer(bytes.NewReader(body))
	var raw atom.Atom // inside script or style
	inNoscript := false
	pendingMount := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return r
		}
		size := len(z.Raw())

		switch tt {
		case html.TextToken:
			if raw != 0 {
				r.markup += size
				continue
			}
			txt := z.Text()
			if inNoscript && bytes.Contains(bytes.ToLower(txt), []byte("enable javascript")) {
				r.jsNotice = true
			}
			for _, c := range string(txt) {
				if !unicode.IsSpace(c) {
					r.text++
				}
			}
			if pendingMount && len(bytes.TrimSpace(txt)) > 0 {
				pendingMount = false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			r.markup += size
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			pendingMount = false
			switch a {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					raw = a
				}
			case atom.Noscript:
				inNoscript = true
			case atom.Div:
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					if string(k) == "id" && mountIDs[strings.TrimSpace(string(v))] {
						pendingMount = tt == html.StartTagToken
					}
				}
			}
		case html.EndTagToken:
			r.markup += size
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if pendingMount && a == atom.Div {
				r.emptyMount = true
			}
			pendingMount = false
			if a == raw {
				raw = 0
			}
			if a == atom.Noscript {
				inNoscript = false
			}
		default:
			r.markup += size
		}
	}
}
