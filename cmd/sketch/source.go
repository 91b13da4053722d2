package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
)

// readSource reads a program from path, or stdin when path is "-". An HTML
// page yields its inline scripts joined in document order; scripts loaded
// by src are the page's libraries and are skipped.
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading program: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("program is empty")
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("text/html"):
		return inlineScripts(string(data))
	case !isText(mtype):
		return "", fmt.Errorf("program is %s, not text", mtype.String())
	}
	return string(data), nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func inlineScripts(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	var parts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("src"); ok {
			return
		}
		switch strings.ToLower(s.AttrOr("type", "")) {
		case "", "text/javascript", "application/javascript", "module":
		default:
			return
		}
		if code := strings.TrimSpace(s.Text()); code != "" {
			parts = append(parts, code)
		}
	})
	if len(parts) == 0 {
		return "", errors.New("page has no inline scripts")
	}
	return strings.Join(parts, "\n\n"), nil
}
