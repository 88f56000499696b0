package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/companion/internal/httpx"
	"github.com/lumenlabs/companion/internal/types"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Companion Notes</title>
<meta name="description" content="A page about notes">
<meta property="og:title" content="Notes OG">
<meta name="twitter:card" content="summary">
</head>
<body>
<script>var tracked = true;</script>
<h1>Daily Notes</h1>
<p class="entry">First entry</p>
<p class="entry">Second entry</p>
<a href="/archive">Archive</a>
<a href="https://example.com/about">About</a>
<a href="#top">Top</a>
</body>
</html>`

func newTestProvider() *Provider {
	return NewProvider(httpx.New(), nil)
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	p := newTestProvider()
	result := exec(t, p, "scraper.scrape", map[string]interface{}{"url": srv.URL})
	require.True(t, result.Success)

	assert.Equal(t, "Companion Notes", result.Data["title"])
	assert.Contains(t, result.Data["text"], "Daily Notes")
	assert.NotContains(t, result.Data["text"], "tracked")

	links, ok := result.Data["links"].([]string)
	require.True(t, ok)
	assert.Contains(t, links, srv.URL+"/archive")
	assert.Contains(t, links, "https://example.com/about")
	assert.NotContains(t, links, "#top")
}

func TestScrapeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	p := newTestProvider()
	result := exec(t, p, "scraper.scrape", map[string]interface{}{"url": srv.URL})
	assert.False(t, result.Success)
}

func TestScrapeRejectsNonHTTP(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.scrape", map[string]interface{}{"url": "file:///etc/passwd"})
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "unsupported scheme")
}

func TestFetchRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>raw</body></html>"))
	}))
	defer srv.Close()

	p := newTestProvider()
	result := exec(t, p, "scraper.fetch", map[string]interface{}{"url": srv.URL})
	require.True(t, result.Success)
	assert.Contains(t, result.Data["html"], "raw")
}

func TestFetchRejectsOversizedPage(t *testing.T) {
	chunk := make([]byte, 1<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		for written := 0; written <= maxDocumentSize; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p := newTestProvider()
	result := exec(t, p, "scraper.fetch", map[string]interface{}{"url": srv.URL})
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "exceeds maximum size")
}

func TestSelectText(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.select", map[string]interface{}{
		"html":     samplePage,
		"selector": "p.entry",
	})
	require.True(t, result.Success)

	results, ok := result.Data["results"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"First entry", "Second entry"}, results)
}

func TestSelectAttribute(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.select", map[string]interface{}{
		"html":      samplePage,
		"selector":  "a",
		"attribute": "href",
	})
	require.True(t, result.Success)

	results, ok := result.Data["results"].([]string)
	require.True(t, ok)
	assert.Contains(t, results, "/archive")
}

func TestXPath(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.xpath", map[string]interface{}{
		"html":  samplePage,
		"query": "//h1",
	})
	require.True(t, result.Success)

	results, ok := result.Data["results"].([]string)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "Daily Notes", results[0])
}

func TestXPathInvalid(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.xpath", map[string]interface{}{
		"html":  samplePage,
		"query": "///[",
	})
	assert.False(t, result.Success)
}

func TestMetadata(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.metadata", map[string]interface{}{"html": samplePage})
	require.True(t, result.Success)

	standard := result.Data["standard"].(map[string]string)
	assert.Equal(t, "A page about notes", standard["description"])

	og := result.Data["open_graph"].(map[string]string)
	assert.Equal(t, "Notes OG", og["og:title"])

	twitter := result.Data["twitter"].(map[string]string)
	assert.Equal(t, "summary", twitter["twitter:card"])

	assert.Equal(t, "Companion Notes", result.Data["title"])
}

func TestCleanStripsScripts(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.clean", map[string]interface{}{
		"html": `<p>safe</p><script>alert(1)</script>`,
	})
	require.True(t, result.Success)

	cleaned := result.Data["html"].(string)
	assert.Contains(t, cleaned, "safe")
	assert.NotContains(t, cleaned, "script")
}

func TestMissingParams(t *testing.T) {
	p := newTestProvider()

	for _, toolID := range []string{
		"scraper.scrape", "scraper.fetch", "scraper.select",
		"scraper.xpath", "scraper.clean", "scraper.metadata",
	} {
		result := exec(t, p, toolID, map[string]interface{}{})
		assert.False(t, result.Success, toolID)
	}
}

func TestUnknownTool(t *testing.T) {
	p := newTestProvider()

	result := exec(t, p, "scraper.teleport", nil)
	assert.False(t, result.Success)
}
