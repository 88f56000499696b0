// Package scraper provides web page fetching and content extraction.
//
// Modules:
//   - fetch: page retrieval with size caps and circuit breaking
//   - content: CSS selection, XPath queries, sanitization
//   - metadata: meta tag extraction (standard, Open Graph, Twitter)
//
// All HTML parsing goes through charset detection so non-UTF-8 pages
// decode correctly.
package scraper
