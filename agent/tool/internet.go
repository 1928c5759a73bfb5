package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

const (
	defaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	fetchUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPageBytes          = 2 << 20
)

// InternetConfig tunes the internet tool group. The zero value uses the
// public DuckDuckGo HTML endpoint; tests point Endpoint at a local server.
type InternetConfig struct {
	Endpoint string
	Client   *http.Client
}

// Internet returns the web search and page-fetch tool group.
func Internet(cfg InternetConfig) []Tool {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        "web_search",
				Description: "Performs a web search and returns a list of results.",
				Params: []contractx.ParamSpec{
					{Name: "query", Type: contractx.ParamString, Description: "Search query.", Required: true},
					{Name: "num_results", Type: contractx.ParamNumber, Description: "How many results to return (default 5)."},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				query, err := stringArg(args, "query")
				if err != nil {
					return failure("%v", err)
				}
				numResults := optionalIntArg(args, "num_results", 5)
				return webSearch(ctx, client, endpoint, query, numResults)
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "fetch_webpage_content",
				Description: "Fetches the text content of a URL. Useful for reading search results.",
				Params: []contractx.ParamSpec{
					{Name: "url", Type: contractx.ParamString, Description: "Full URL of the page to read.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pageURL, err := stringArg(args, "url")
				if err != nil {
					return failure("%v", err)
				}
				return fetchWebpageContent(ctx, client, pageURL)
			},
		},
	}
}

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

func webSearch(ctx context.Context, client *http.Client, endpoint, query string, numResults int) contractx.ToolResult {
	if numResults <= 0 {
		numResults = 5
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return failure("failed to build search request: %v", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return failure("web search failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failure("web search failed: status %d", resp.StatusCode)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return failure("failed to parse search results: %v", err)
	}

	results := extractSearchResults(root)
	if len(results) == 0 {
		return success("no search results found")
	}
	if len(results) > numResults {
		results = results[:numResults]
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nSnippet: %s\n---\n", r.Title, r.URL, r.Snippet)
	}
	return success(strings.TrimSuffix(b.String(), "\n"))
}

// extractSearchResults walks the DuckDuckGo HTML document, pairing
// result__a anchors with their result__snippet blocks.
func extractSearchResults(root *html.Node) []searchResult {
	var results []searchResult
	var current *searchResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			class := attrValue(n, "class")
			switch {
			case n.Data == "a" && strings.Contains(class, "result__a"):
				if current != nil {
					results = append(results, *current)
				}
				current = &searchResult{
					Title: nodeText(n),
					URL:   attrValue(n, "href"),
				}
			case strings.Contains(class, "result__snippet"):
				if current != nil && current.Snippet == "" {
					current.Snippet = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if current != nil {
		results = append(results, *current)
	}
	return results
}

func fetchWebpageContent(ctx context.Context, client *http.Client, pageURL string) contractx.ToolResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return failure("invalid url '%s': %v", pageURL, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return failure("failed to fetch content from url '%s': %v", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failure("failed to fetch content from url '%s': status %d", pageURL, resp.StatusCode)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return failure("failed to parse page at '%s': %v", pageURL, err)
	}

	return success(pageText(root))
}

// pageText extracts visible text, skipping script and style subtrees and
// collapsing blank lines.
func pageText(root *html.Node) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.TrimSpace(b.String())
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
