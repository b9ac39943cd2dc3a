package sitemap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

// stubGetter serves sitemap bodies from a map.
type stubGetter struct {
	docs    map[string]string
	fetched []string
}

func (g *stubGetter) Get(_ context.Context, url string) (string, error) {
	g.fetched = append(g.fetched, url)
	body, ok := g.docs[url]
	if !ok {
		return "", fmt.Errorf("no document for %s", url)
	}
	return body, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollect_URLSet(t *testing.T) {
	getter := &stubGetter{docs: map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc><lastmod>2024-05-01</lastmod></url>
  <url><loc>https://example.com/b</loc></url>
  <url><loc>https://example.com/a</loc></url>
</urlset>`,
	}}

	entries, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (duplicates collapse)", len(entries))
	}
	if entries[0].Loc != "https://example.com/a" || entries[1].Loc != "https://example.com/b" {
		t.Errorf("entry order = [%s, %s], want document order", entries[0].Loc, entries[1].Loc)
	}
	if entries[0].Lastmod == nil {
		t.Fatal("lastmod not parsed")
	}
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !entries[0].Lastmod.Equal(want) {
		t.Errorf("lastmod = %v, want %v", entries[0].Lastmod, want)
	}
}

func TestCollect_NestedIndex(t *testing.T) {
	getter := &stubGetter{docs: map[string]string{
		"https://example.com/sitemap.xml": `<sitemapindex>
  <sitemap><loc>https://example.com/sub1.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sub2.xml</loc></sitemap>
</sitemapindex>`,
		"https://example.com/sub1.xml": `<urlset>
  <url><loc>https://example.com/a</loc></url>
  <url><loc>https://example.com/shared</loc></url>
</urlset>`,
		"https://example.com/sub2.xml": `<urlset>
  <url><loc>https://example.com/b</loc></url>
  <url><loc>https://example.com/shared</loc></url>
</urlset>`,
	}}

	entries, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	got := make(map[string]bool)
	for _, e := range entries {
		got[e.Loc] = true
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (set union across nested sitemaps)", len(entries))
	}
	for _, want := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/shared"} {
		if !got[want] {
			t.Errorf("missing %s", want)
		}
	}
}

func TestCollect_SelfReferencingIndex(t *testing.T) {
	getter := &stubGetter{docs: map[string]string{
		"https://example.com/sitemap.xml": `<sitemapindex>
  <sitemap><loc>https://example.com/sitemap.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sub.xml</loc></sitemap>
</sitemapindex>`,
		"https://example.com/sub.xml": `<urlset>
  <url><loc>https://example.com/a</loc></url>
</urlset>`,
	}}

	entries, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v, want revisit guard to break the cycle", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if len(getter.fetched) != 2 {
		t.Errorf("fetched %d sitemaps, want 2 (self-reference fetched once)", len(getter.fetched))
	}
}

func TestCollect_Empty(t *testing.T) {
	getter := &stubGetter{docs: map[string]string{
		"https://example.com/sitemap.xml": `<urlset></urlset>`,
	}}

	entries, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v, empty sitemap is not an error", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestCollect_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated XML", `<urlset><url><loc>https://example.com/a`},
		{"not a sitemap", `<html><body>404</body></html>`},
		{"garbage", `{"not": "xml"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &stubGetter{docs: map[string]string{
				"https://example.com/sitemap.xml": tt.body,
			}}
			_, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
			if !errors.Is(err, ErrParse) {
				t.Errorf("Collect() error = %v, want ErrParse", err)
			}
		})
	}
}

func TestCollect_SkipsInvalidLocs(t *testing.T) {
	getter := &stubGetter{docs: map[string]string{
		"https://example.com/sitemap.xml": `<urlset>
  <url><loc>  https://example.com/a  </loc></url>
  <url><loc></loc></url>
  <url><loc>ftp://example.com/file</loc></url>
  <url><loc>/relative</loc></url>
</urlset>`,
	}}

	entries, err := Collect(context.Background(), getter, "https://example.com/sitemap.xml", testLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (trimmed absolute + resolved relative)", len(entries))
	}
	if entries[0].Loc != "https://example.com/a" {
		t.Errorf("entries[0] = %q, want trimmed loc", entries[0].Loc)
	}
	if entries[1].Loc != "https://example.com/relative" {
		t.Errorf("entries[1] = %q, want loc resolved against the sitemap URL", entries[1].Loc)
	}
}
