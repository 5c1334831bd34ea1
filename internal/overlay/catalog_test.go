package overlay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleCatalogXML = `<?xml version="1.0" encoding="UTF-8"?>
<repositories version="1.0">
  <repo quality="experimental" status="official">
    <name>guru</name>
    <description lang="en">GURU: Gentoo User Repository</description>
    <description lang="de">GURU: Gentoo-Benutzer-Repository</description>
    <homepage>https://wiki.gentoo.org/wiki/Project:GURU</homepage>
    <owner type="project">
      <email>guru@gentoo.org</email>
      <name>GURU</name>
    </owner>
    <source type="git">https://anongit.gentoo.org/git/repo/proj/guru.git</source>
    <source type="git">git://anongit.gentoo.org/repo/proj/guru.git</source>
    <feed>https://cgit.gentoo.org/repo/proj/guru.git/atom/</feed>
  </repo>
  <repo quality="experimental" status="unofficial">
    <name>pentoo</name>
    <description lang="de">Pentoo Overlay</description>
    <owner type="person">
      <email>someone@example.org</email>
    </owner>
    <source type="rsync">rsync://mirror.example.org/pentoo</source>
  </repo>
</repositories>
`

func TestParseCatalog(t *testing.T) {
	repos, err := parseCatalog(strings.NewReader(sampleCatalogXML))
	if err != nil {
		t.Fatalf("parseCatalog() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("parsed %d repos, want 2", len(repos))
	}

	guru := repos[0]
	if guru.Name != "guru" {
		t.Errorf("Name = %q", guru.Name)
	}
	if guru.Description != "GURU: Gentoo User Repository" {
		t.Errorf("Description = %q, want the English variant", guru.Description)
	}
	if guru.Quality != "experimental" || guru.Status != "official" {
		t.Errorf("Quality/Status = %q/%q", guru.Quality, guru.Status)
	}
	if guru.Owner.Type != "project" || guru.Owner.Email != "guru@gentoo.org" {
		t.Errorf("Owner = %+v", guru.Owner)
	}
	if len(guru.Sources) != 2 || guru.Sources[0].Type != "git" {
		t.Errorf("Sources = %+v", guru.Sources)
	}
	if len(guru.Feeds) != 1 {
		t.Errorf("Feeds = %v", guru.Feeds)
	}

	// No English description falls back to the first variant.
	if repos[1].Description != "Pentoo Overlay" {
		t.Errorf("fallback description = %q", repos[1].Description)
	}
	if repos[1].Sources[0].Type != "rsync" {
		t.Errorf("source type = %q", repos[1].Sources[0].Type)
	}
}

func TestParseCatalogGarbage(t *testing.T) {
	if _, err := parseCatalog(strings.NewReader("not xml at all")); err == nil {
		t.Error("parseCatalog() accepted garbage")
	}
}

func TestFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCatalogXML))
	}))
	defer server.Close()

	client := NewRetryableHTTPClient()
	repos, err := fetchCatalog(context.Background(), client, server.URL)
	if err != nil {
		t.Fatalf("fetchCatalog() error = %v", err)
	}
	if len(repos) != 2 {
		t.Errorf("fetched %d repos, want 2", len(repos))
	}
}

func TestFetchCatalogRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleCatalogXML))
	}))
	defer server.Close()

	client := NewRetryableHTTPClient()
	client.SetDelayFunc(func(time.Duration) {})

	repos, err := fetchCatalog(context.Background(), client, server.URL)
	if err != nil {
		t.Fatalf("fetchCatalog() error = %v", err)
	}
	if len(repos) != 2 {
		t.Errorf("fetched %d repos, want 2", len(repos))
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetchCatalogNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewRetryableHTTPClient()
	client.SetDelayFunc(func(time.Duration) {})

	if _, err := fetchCatalog(context.Background(), client, server.URL); err == nil {
		t.Error("fetchCatalog() on 404 returned nil error")
	}
}

func TestRetryDelaysAreExponential(t *testing.T) {
	c := NewRetryableHTTPClient()
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := c.calculateDelay(i + 1); got != w {
			t.Errorf("calculateDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
	// Capped at MaxDelay.
	if got := c.calculateDelay(10); got != 4*time.Second {
		t.Errorf("calculateDelay(10) = %v, want cap of 4s", got)
	}
}
