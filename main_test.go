package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pageDoc builds a minimal article page.
func pageDoc(title, body string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>`, title, title, body)
}

func TestPipeline_EndToEnd(t *testing.T) {
	titles := []string{"Alpha Page", "Beta Page", "Gamma Page"}

	mux := http.NewServeMux()
	var site *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset>
  <url><loc>%[1]s/alpha</loc></url>
  <url><loc>%[1]s/beta</loc></url>
  <url><loc>%[1]s/gamma</loc></url>
</urlset>`, site.URL)
	})
	mux.HandleFunc("/alpha", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageDoc(titles[0], "Alpha is the first page of the site and explains the basics."))
	})
	mux.HandleFunc("/beta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageDoc(titles[1], "Beta covers the intermediate material in more depth."))
	})
	mux.HandleFunc("/gamma", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageDoc(titles[2], "Gamma collects the advanced topics and references."))
	})
	site = httptest.NewServer(mux)
	defer site.Close()

	// A provider stub that summarizes by echoing a marker per request.
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		last := req.Messages[len(req.Messages)-1].Content
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{
				"role":    "assistant",
				"content": "<think>reasoning</think>Summary: " + strings.Fields(last)[0],
			},
		})
	}))
	defer llm.Close()
	t.Setenv("SITEDIGEST_OLLAMA_HOST", llm.URL)

	dir := t.TempDir()
	db := filepath.Join(dir, "digest.db")
	out := filepath.Join(dir, "llms.txt")

	run := func(args ...string) {
		t.Helper()
		argv := append([]string{"sitedigest", "--verbose", "0"}, args...)
		if err := newApp().Run(argv); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	run("scrape", "--delay", "0", site.URL+"/sitemap.xml", db)
	run("parse", "--text-by", "goquery", db)
	run("summarize", db, "ollama://8b@qwen3")
	run("compose", db, out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	artifact := string(data)

	for _, title := range titles {
		if !strings.Contains(artifact, title) {
			t.Errorf("artifact missing title %q:\n%s", title, artifact)
		}
	}
	if strings.Contains(artifact, "<think>") {
		t.Errorf("artifact leaked a think block:\n%s", artifact)
	}
	if got := strings.Count(artifact, "## "); got != 3 {
		t.Errorf("artifact has %d sections, want 3:\n%s", got, artifact)
	}

	// Sections follow sitemap discovery order.
	ai, bi, gi := strings.Index(artifact, titles[0]), strings.Index(artifact, titles[1]), strings.Index(artifact, titles[2])
	if !(ai < bi && bi < gi) {
		t.Errorf("sections out of discovery order: alpha=%d beta=%d gamma=%d\n%s", ai, bi, gi, artifact)
	}

	// Re-running every stage with nothing new is a no-op on the artifact.
	run("scrape", "--delay", "0", site.URL+"/sitemap.xml", db)
	run("parse", db)
	run("summarize", db, "ollama://8b@qwen3")
	run("compose", db, out)

	again, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("artifact missing after re-run: %v", err)
	}
	if got := strings.Count(string(again), "## "); got != 3 {
		t.Errorf("re-run changed the artifact: %d sections, want 3", got)
	}
}

func TestPipeline_UnknownTargetURL(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "digest.db")

	// An empty store plus an explicit URL target must fail the invocation.
	err := newApp().Run([]string{
		"sitedigest", "--verbose", "0",
		"parse", "--target", "https://example.com/never-discovered", db,
	})
	if err == nil {
		t.Fatal("parse with an undiscovered target URL did not fail")
	}
}
