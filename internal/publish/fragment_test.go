package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestWriteFragment(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latest_report.html")
	if err := WriteFragment(path, "perf_tests_08_29_2026.html"); err != nil {
		t.Fatalf("WriteFragment failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	nodes, err := html.ParseFragment(strings.NewReader(string(data)), &html.Node{
		Type:     html.ElementNode,
		Data:     "ul",
		DataAtom: atom.Ul,
	})
	if err != nil {
		t.Fatalf("fragment does not parse: %v", err)
	}
	var href string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					href = a.Val
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	if href != "perf_tests_08_29_2026.html" {
		t.Errorf("expected link to archived report, got %q", href)
	}
}

func TestWriteFragmentReplacesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latest_report.html")
	if err := os.WriteFile(path, []byte("<li>stale</li>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteFragment(path, "perf_tests_08_30_2026.html"); err != nil {
		t.Fatalf("WriteFragment failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("stale fragment content survived rewrite")
	}
	if !strings.Contains(string(data), "perf_tests_08_30_2026.html") {
		t.Errorf("fragment missing new link: %q", data)
	}
}
