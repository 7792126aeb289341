// Package article downloads a web page and extracts its readable text.
package article

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

// maxBodySize limits how much HTML is read from untrusted URLs.
const maxBodySize = 10 * 1024 * 1024

// Article is the readable content of a page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// Lines returns the article text split into lines, blank lines dropped.
func (a *Article) Lines() []string {
	var lines []string
	for _, l := range strings.Split(a.Text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

// Fetch downloads rawURL and extracts the article. A nil client means
// http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (*Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Some sites refuse clients that do not look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got status code %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}

	// Read one byte past the limit to tell "exactly the limit" from "truncated".
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}

	return Parse(body, parsedURL)
}

// Parse extracts the article from an HTML document.
func Parse(html []byte, pageURL *url.URL) (*Article, error) {
	html = SanitizeRuby(html)
	a, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article: %w", err)
	}
	u := ""
	if pageURL != nil {
		u = pageURL.String()
	}
	return &Article{
		URL:      u,
		Title:    a.Title,
		Byline:   a.Byline,
		SiteName: a.SiteName,
		Text:     a.TextContent,
	}, nil
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>). Pages that annotate characters with pinyin or zhuyin would
// otherwise come out as "汉字hànzì", and the annotation letters would pass
// through conversion as ordinary text.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
