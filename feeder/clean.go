package feeder

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// XML forbids control characters other than tab, LF and CR.
var invalidControlCharRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)

func cleanControlCharacters(b []byte) []byte {
	return invalidControlCharRegex.ReplaceAll(b, nil)
}

// CleanText strips markup and entities and collapses whitespace.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// FirstImage returns the src of the first <img> in an HTML fragment.
func FirstImage(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// Truncate cuts s to at most n runes, ending on a word boundary with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.") + "..."
}

// toUTF8 converts a body to UTF-8 when the Content-Type header or a BOM
// names another charset. Bodies with an XML encoding declaration are left
// alone since the feed parser honours the declaration itself.
func toUTF8(body []byte, contentType string) io.Reader {
	if declaresXMLEncoding(body) {
		return bytes.NewReader(body)
	}
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain || name == "utf-8" {
		return bytes.NewReader(body)
	}
	return enc.NewDecoder().Reader(bytes.NewReader(body))
}

func declaresXMLEncoding(body []byte) bool {
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	end := bytes.Index(head, []byte("?>"))
	if !bytes.HasPrefix(bytes.TrimLeft(head, "\ufeff \t\r\n"), []byte("<?xml")) || end < 0 {
		return false
	}
	return bytes.Contains(head[:end], []byte("encoding="))
}
