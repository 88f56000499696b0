package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/lumenlabs/companion/internal/types"
)

// maxDocumentSize caps HTML input at 10MB.
const maxDocumentSize = 10 << 20

// htmlOps holds state shared by the tool modules.
type htmlOps struct {
	policy *bluemonday.Policy
}

func newHTMLOps() *htmlOps {
	return &htmlOps{policy: bluemonday.UGCPolicy()}
}

func (h *htmlOps) sanitize(doc string) string {
	return h.policy.Sanitize(doc)
}

// Success wraps data in a successful result.
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure wraps a message in a failed result.
func Failure(message string) (*types.Result, error) {
	return &types.Result{Success: false, Error: &message}, nil
}

func strParam(params map[string]interface{}, key string) (string, bool) {
	val, ok := params[key].(string)
	return val, ok
}

func checkSize(doc string) error {
	if doc == "" {
		return errors.New("html content required")
	}
	if len(doc) > maxDocumentSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", maxDocumentSize)
	}
	return nil
}

// decoded returns a UTF-8 reader over doc, sniffing the charset first.
// Any sniffing or transcoding failure falls back to the raw bytes.
func decoded(doc string) io.Reader {
	best, err := chardet.NewTextDetector().DetectBest([]byte(doc))
	if err != nil || best == nil {
		return strings.NewReader(doc)
	}
	r, err := charset.NewReader(bytes.NewReader([]byte(doc)), strings.ToLower(best.Charset))
	if err != nil {
		return strings.NewReader(doc)
	}
	return r
}

func parseDocument(doc string) (*goquery.Document, error) {
	if err := checkSize(doc); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(decoded(doc))
}

func parseNode(doc string) (*html.Node, error) {
	if err := checkSize(doc); err != nil {
		return nil, err
	}
	return htmlquery.Parse(decoded(doc))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
