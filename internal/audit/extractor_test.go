package audit

import (
	"net/http"
	"os"
	"testing"

	"seoaudit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchedFromFile(t *testing.T, file, finalURL string, header http.Header) *fetchedPage {
	t.Helper()
	body, err := os.ReadFile(file)
	require.NoError(t, err, "Failed to read HTML file: %s", file)

	if header == nil {
		header = http.Header{"Content-Type": {"text/html; charset=utf-8"}}
	}
	return &fetchedPage{
		RequestedURL: finalURL,
		FinalURL:     finalURL,
		StatusCode:   http.StatusOK,
		Header:       header,
		Body:         body,
		TransferSize: int64(len(body)),
	}
}

func TestExtract_BlogPost(t *testing.T) {
	page := fetchedFromFile(t, "testdata/blog_post.html", "https://blog.example.com/posts/reliable-go-services", nil)

	snap, err := extract(page)
	require.NoError(t, err)

	assert.Equal(t, "Writing Reliable Go Services: Lessons From Production", snap.Title)
	assert.Len(t, snap.MetaDescription, 150)
	assert.Equal(t, []string{"Writing Reliable Go Services"}, snap.H1)
	assert.Equal(t, "en", snap.Lang)
	assert.Equal(t, "utf-8", snap.Charset)
	assert.True(t, snap.HasViewport)
	assert.Equal(t, "https://blog.example.com/posts/reliable-go-services", snap.Canonical, "canonical resolves against <base>")
	assert.Equal(t, []string{"index", "follow"}, snap.RobotsDirectives)

	assert.Equal(t, []models.Hreflang{
		{Lang: "en", Href: "https://blog.example.com/posts/reliable-go-services"},
		{Lang: "de", Href: "https://blog.example.com/de/posts/reliable-go-services"},
	}, snap.Hreflangs)
	assert.Equal(t, []string{"de_DE"}, snap.LocaleAlternates)

	assert.Equal(t, "Writing Reliable Go Services", snap.OpenGraph["og:title"])
	assert.Len(t, snap.OpenGraph, 3)
	assert.Equal(t, "summary_large_image", snap.TwitterCard["twitter:card"])

	require.Len(t, snap.JSONLD, 2)
	assert.True(t, snap.JSONLD[0].Valid)
	assert.Equal(t, []string{"BlogPosting"}, snap.JSONLD[0].Types)
	assert.False(t, snap.JSONLD[1].Valid)
	assert.NotEmpty(t, snap.JSONLD[1].Error)

	require.Len(t, snap.Images, 4)
	assert.Equal(t, []bool{true, true, false, true}, []bool{
		snap.Images[0].HasAlt, snap.Images[1].HasAlt, snap.Images[2].HasAlt, snap.Images[3].HasAlt,
	}, "an empty alt marks a decorative image")

	expected := []models.Link{
		{Href: "https://blog.example.com/", Text: "Home", Internal: true, Context: models.LinkContextHeader, Position: 0},
		{Href: "https://blog.example.com/posts/archive", Text: "Archive", Internal: true, Context: models.LinkContextNav, Position: 1},
		{Href: "https://www.blog.example.com/about", Text: "About", Internal: true, Context: models.LinkContextNav, Position: 2},
		{Href: "https://go.dev/doc/effective_go", Text: "Effective Go", Internal: false, Context: models.LinkContextMain, Position: 3},
		{Href: "https://blog.example.com/posts/related-post", Text: "Related post", Internal: true, Context: models.LinkContextSidebar, Position: 4},
		{Href: "https://twitter.com/example", Text: "Twitter", Internal: false, Context: models.LinkContextFooter, Position: 5},
	}
	assert.Equal(t, expected, snap.Links)
}

func TestExtract_MinimalPage(t *testing.T) {
	page := fetchedFromFile(t, "testdata/minimal_page.html", "https://minimal.example.com/", http.Header{})

	snap, err := extract(page)
	require.NoError(t, err)

	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.MetaDescription)
	assert.Empty(t, snap.H1)
	assert.Empty(t, snap.Lang)
	assert.Empty(t, snap.Charset)
	assert.Empty(t, snap.Canonical)
	assert.False(t, snap.HasViewport)
	assert.Empty(t, snap.Links)
	assert.Empty(t, snap.OpenGraph)
	require.Len(t, snap.Images, 1)
	assert.False(t, snap.Images[0].HasAlt)
}

func TestExtract_MalformedMarkupIsTolerated(t *testing.T) {
	page := &fetchedPage{
		FinalURL: "https://site.example.com/",
		Header:   http.Header{"Content-Type": {"text/html"}},
		Body:     []byte(`<html><head><title>Broken <b>markup</title><body><h1>Unclosed<p><a href="/x">x link`),
	}

	snap, err := extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Broken <b>markup", snap.Title)
	require.Len(t, snap.Links, 1)
	assert.Equal(t, "https://site.example.com/x", snap.Links[0].Href)
}

func TestExtract_DecodesDeclaredCharset(t *testing.T) {
	// "Café" in ISO-8859-1
	body := []byte("<html><head><title>Caf\xe9</title></head><body></body></html>")
	page := &fetchedPage{
		FinalURL: "https://site.example.com/",
		Header:   http.Header{"Content-Type": {"text/html; charset=ISO-8859-1"}},
		Body:     body,
	}

	snap, err := extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Café", snap.Title)
	assert.Equal(t, "iso-8859-1", snap.Charset)
}

func TestExtract_RobotsHeader(t *testing.T) {
	page := &fetchedPage{
		FinalURL: "https://site.example.com/",
		Header: http.Header{
			"Content-Type": {"text/html"},
			"X-Robots-Tag": {"googlebot: noindex, nofollow", "noarchive"},
		},
		Body: []byte(`<html><head><meta name="ROBOTS" content="NOINDEX"></head><body></body></html>`),
	}

	snap, err := extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"noindex", "nofollow", "noarchive"}, snap.RobotsDirectives)
}

func TestExtract_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		body        string
	}{
		{"Empty", "text/html", ""},
		{"Whitespace", "text/html", " \n "},
		{"Image", "image/jpeg", "\xff\xd8\xff"},
		{"Binary", "application/octet-stream", "\x00\x01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extract(&fetchedPage{
				FinalURL: "https://site.example.com/",
				Header:   http.Header{"Content-Type": {tc.contentType}},
				Body:     []byte(tc.body),
			})
			var extractErr *ExtractionError
			assert.ErrorAs(t, err, &extractErr)
		})
	}
}
