package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchToolRequiresQuery(t *testing.T) {
	tool := NewSearchTool()
	text, _, _, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"   "}`))
	require.NoError(t, err)
	assert.Contains(t, text, "required")
}

func TestFetchToolRejectsNonHTTPScheme(t *testing.T) {
	tool := NewFetchTool()
	input, _ := json.Marshal(map[string]string{"url": "file:///etc/passwd"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "scheme must be http")
}

func TestFetchToolRejectsLocalhost(t *testing.T) {
	tool := NewFetchTool()
	input, _ := json.Marshal(map[string]string{"url": "http://localhost:8080/admin"})
	text, _, _, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "localhost")
}

func TestFetchToolRejectsCloudMetadataIP(t *testing.T) {
	err := validateFetchURL("http://169.254.169.254/latest/meta-data/")
	require.Error(t, err)
}

func TestFetchToolTruncatesLongPage(t *testing.T) {
	tool := &FetchTool{fetchLimit: 10}
	text := truncateForTest(tool, strings.Repeat("a", 50))
	assert.Contains(t, text, "Truncated")
	assert.True(t, strings.HasPrefix(text, strings.Repeat("a", 10)))
}

// truncateForTest runs the truncation step Execute applies to a fetched
// page, without making a real HTTP request.
func truncateForTest(t *FetchTool, body string) string {
	limit := t.fetchLimit
	if limit <= 0 {
		limit = webFetchDefaultLimit
	}
	return truncatePage(body, limit, false)
}

func TestHTMLToReadableTextStripsTagsAndScripts(t *testing.T) {
	html := `<html><head><script>var x=1;</script></head><body><h1>Title</h1><p>Hello &amp; welcome.</p></body></html>`
	text := htmlToReadableText(html)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Hello & welcome.")
	assert.NotContains(t, text, "var x=1")
}

func TestHTMLToReadableTextCollapsesBlankLines(t *testing.T) {
	html := "<p>one</p>\n\n\n\n<p>two</p>"
	text := htmlToReadableText(html)
	assert.NotContains(t, text, "\n\n\n")
}
