package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	latexPattern    = regexp.MustCompile(`\$+([^$]+)\$+`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern = regexp.MustCompile(` {2,}`)
)

// ParseStatement extracts the plain statement text from a problem page.
// The header block (title, limits) is dropped. A page without a statement
// yields "".
func ParseStatement(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	stmt := doc.Find("div.problem-statement").First()
	if stmt.Length() == 0 {
		return "", nil
	}
	stmt.Find("div.header").Remove()

	var parts []string
	collectText(stmt, &parts)
	return CleanText(strings.Join(parts, "\n")), nil
}

// collectText appends every non-blank text node under s in document order.
func collectText(s *goquery.Selection, out *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				*out = append(*out, t)
			}
			return
		}
		collectText(c, out)
	})
}

// CleanText strips LaTeX delimiters ($, $$ and the site's $$$) and squeezes
// whitespace.
func CleanText(text string) string {
	text = latexPattern.ReplaceAllString(text, "$1")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
