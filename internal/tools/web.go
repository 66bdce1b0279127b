package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// webSearchMaxResults bounds how many DuckDuckGo related topics the
// search tool turns into lines, mirroring the original assistant's
// fixed result count.
const webSearchMaxResults = 5

// webFetchDefaultLimit is how many characters fetch() returns unless
// full is set, matching the body's default page-preview length.
const webFetchDefaultLimit = 2000

// SearchTool looks up real-time information via DuckDuckGo's Instant
// Answer API. It has no API key requirement, unlike the richer
// multi-backend search this is adapted from.
type SearchTool struct {
	httpClient *http.Client
}

// NewSearchTool constructs a SearchTool with a bounded HTTP timeout.
func NewSearchTool() *SearchTool {
	return &SearchTool{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (t *SearchTool) Name() string { return "search" }
func (t *SearchTool) Description() string {
	return "Search the web for real-time information, news or facts."
}
func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}
	if strings.TrimSpace(args.Query) == "" {
		return "A search query is required.", "", "", nil
	}

	instantURL := "https://api.duckduckgo.com/?q=" + url.QueryEscape(args.Query) + "&format=json&no_html=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instantURL, nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FamiliarAI/1.0)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error during web search: %v", err), "", "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error during web search: DuckDuckGo returned HTTP %d", resp.StatusCode), "", "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", "", "", err
	}

	var ddg struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &ddg); err != nil {
		return fmt.Sprintf("Error during web search: %v", err), "", "", nil
	}

	type result struct{ title, href, summary string }
	var results []result
	if ddg.AbstractText != "" && ddg.AbstractURL != "" {
		results = append(results, result{ddg.Heading, ddg.AbstractURL, ddg.AbstractText})
	}
	for _, topic := range ddg.RelatedTopics {
		if len(results) >= webSearchMaxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		title := topic.Text
		if idx := strings.Index(title, " - "); idx > 0 {
			title = title[:idx]
		}
		results = append(results, result{title, topic.FirstURL, topic.Text})
	}

	if len(results) == 0 {
		return "No search results found.", "", "", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n   Summary: %s\n\n", i+1, r.title, r.href, r.summary)
	}
	return strings.TrimRight(b.String(), "\n"), "", "", nil
}

// FetchTool downloads a webpage and reduces it to readable text, for
// the model to read a specific page a search turned up.
type FetchTool struct {
	httpClient *http.Client
	// fetchLimit is how many characters a non-full fetch returns before
	// truncating; tests override it to exercise the truncation path
	// without downloading a multi-kilobyte fixture.
	fetchLimit int
}

// NewFetchTool constructs a FetchTool with a bounded HTTP timeout.
func NewFetchTool() *FetchTool {
	return &FetchTool{httpClient: &http.Client{Timeout: 15 * time.Second}, fetchLimit: webFetchDefaultLimit}
}

func (t *FetchTool) Name() string        { return "fetch" }
func (t *FetchTool) Description() string { return "Download and read the text content of a specific webpage." }
func (t *FetchTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"url":{"type":"string"},"full":{"type":"boolean","default":false}},"required":["url"]}`)
}

func (t *FetchTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	var args struct {
		URL  string `json:"url"`
		Full bool   `json:"full"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", "", "", err
	}

	if err := validateFetchURL(args.URL); err != nil {
		return fmt.Sprintf("Error fetching URL: %v", err), "", "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FamiliarAI/1.0)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error fetching URL: %v", err), "", "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: Received HTTP %d from %s", resp.StatusCode, args.URL), "", "", nil
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", "", "", err
	}

	text := htmlToReadableText(string(html))
	if text == "" {
		return "(No readable text found)", "", "", nil
	}

	limit := t.fetchLimit
	if limit <= 0 {
		limit = webFetchDefaultLimit
	}
	return truncatePage(text, limit, args.Full), "", "", nil
}

// truncatePage cuts text to limit characters unless full is set, and
// marks the cut so the model knows more of the page is available.
func truncatePage(text string, limit int, full bool) string {
	if !full && len(text) > limit {
		return fmt.Sprintf("%s\n\n--- [Truncated: Page is longer than %d characters. Use full=true if needed] ---", text[:limit], limit)
	}
	return text
}

// validateFetchURL rejects anything but an http(s) URL resolving to a
// public address, so fetch() cannot be used to probe the host's own
// network or cloud metadata endpoint.
func validateFetchURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("URL must have a hostname")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost URLs are not allowed")
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		// Unresolvable hosts are left to the HTTP client to fail on;
		// refusing here would also reject legitimate DNS hiccups.
		return nil
	}
	for _, ip := range ips {
		if isPrivateOrReservedIP(ip) {
			return fmt.Errorf("URL resolves to a private or reserved IP address")
		}
	}
	return nil
}

func isPrivateOrReservedIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	metadataIP := net.ParseIP("169.254.169.254")
	switch {
	case ip.IsLoopback(), ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return true
	case ip.IsPrivate(), ip.IsUnspecified(), ip.IsMulticast():
		return true
	case ip.Equal(metadataIP):
		return true
	default:
		return false
	}
}

var (
	noisyTagRE   = regexp.MustCompile(`(?is)<(script|style|noscript|nav|footer|header)[^>]*>.*?</(script|style|noscript|nav|footer|header)>`)
	blockTagsRE  = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|br)[^>]*>`)
	anyTagRE     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRE = regexp.MustCompile(`[^\S\n]+`)
	blankLinesRE = regexp.MustCompile(`\n{3,}`)
)

// htmlToReadableText reduces a page to its visible text, stripping
// script/style/chrome elements and collapsing whitespace with regular
// expressions rather than pulling in a full HTML parser for a
// best-effort text dump.
func htmlToReadableText(html string) string {
	html = noisyTagRE.ReplaceAllString(html, "")
	html = blockTagsRE.ReplaceAllString(html, "\n")
	text := anyTagRE.ReplaceAllString(html, "")

	text = strings.NewReplacer(
		"&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", "\"", "&#39;", "'", "&apos;", "'",
	).Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRE.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
