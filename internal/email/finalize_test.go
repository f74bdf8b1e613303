package email

import (
	"strings"
	"testing"
)

func TestFinalizeHTMLWrapsFragment(t *testing.T) {
	out := FinalizeHTML("<p>Hello</p>", Branding{})

	if !strings.Contains(out, "<!DOCTYPE html>") || !strings.Contains(out, "<html>") {
		t.Fatalf("fragment was not wrapped into a document:\n%s", out)
	}
	if !strings.Contains(out, "<p>Hello</p>") {
		t.Fatalf("content missing from output")
	}
	if !strings.Contains(out, `width="600"`) {
		t.Fatalf("centered table layout missing")
	}
	if !strings.Contains(out, "#f4f4f7") {
		t.Fatalf("default background color missing")
	}
}

func TestFinalizeHTMLUsesBrandingColors(t *testing.T) {
	out := FinalizeHTML("<p>Hi</p>", Branding{
		BackgroundColor:   "#111111",
		ContentBackground: "#222222",
		TextColor:         "#333344",
		PrimaryColor:      "#ff0000",
	})
	for _, color := range []string{"#111111", "#222222", "#333344", "#ff0000"} {
		if !strings.Contains(out, color) {
			t.Fatalf("branding color %s missing from output", color)
		}
	}
}

func TestFinalizeHTMLMergesLeadingStyleBlocks(t *testing.T) {
	raw := "<style>.custom { font-weight: bold; }</style><p>Body</p>"
	out := FinalizeHTML(raw, Branding{})
	if !strings.Contains(out, ".custom { font-weight: bold; }") {
		t.Fatalf("custom style block not merged:\n%s", out)
	}
	if strings.Contains(out, "<style>.custom") {
		t.Fatalf("style block left inline in body content")
	}
}

func TestFinalizeHTMLCompleteDocumentPassesThrough(t *testing.T) {
	raw := "<html><body><p>Custom markup</p></body></html>"
	out := FinalizeHTML(raw, Branding{})
	if out != raw {
		t.Fatalf("complete document was modified:\n%s", out)
	}
}

func TestFinalizeHTMLIdempotent(t *testing.T) {
	branding := Branding{LogoURL: "https://cdn.example.com/logo.png"}
	once := FinalizeHTML("<p>Hello "+LogoToken+"</p>", branding)
	twice := FinalizeHTML(once, branding)
	if once != twice {
		t.Fatalf("finalizing twice changed the document")
	}
}

func TestFinalizeHTMLLogoSubstitution(t *testing.T) {
	out := FinalizeHTML("<p>"+LogoToken+"</p>", Branding{LogoURL: "https://cdn.example.com/logo.png"})
	if !strings.Contains(out, `<img src="https://cdn.example.com/logo.png"`) {
		t.Fatalf("logo img tag missing:\n%s", out)
	}

	out = FinalizeHTML("<p>"+LogoToken+"</p>", Branding{})
	if strings.Contains(out, LogoToken) {
		t.Fatalf("logo token left dangling with no logo configured")
	}
}
