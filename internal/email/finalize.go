package email

import (
	"fmt"
	"regexp"
	"strings"
)

// LogoToken is the placeholder template authors use for the agency logo.
const LogoToken = "{{logoUrl}}"

// Branding holds the tenant's email styling. Zero values fall back to the
// application defaults.
type Branding struct {
	BackgroundColor   string
	ContentBackground string
	TextColor         string
	PrimaryColor      string
	AccentColor       string
	LogoURL           string
}

func (b Branding) withDefaults() Branding {
	if b.BackgroundColor == "" {
		b.BackgroundColor = "#f4f4f7"
	}
	if b.ContentBackground == "" {
		b.ContentBackground = "#ffffff"
	}
	if b.TextColor == "" {
		b.TextColor = "#333333"
	}
	if b.PrimaryColor == "" {
		b.PrimaryColor = "#2563eb"
	}
	if b.AccentColor == "" {
		b.AccentColor = b.PrimaryColor
	}
	return b
}

var (
	htmlTagPattern      = regexp.MustCompile(`(?i)<html[\s>]`)
	leadingStylePattern = regexp.MustCompile(`(?is)^\s*<style[^>]*>(.*?)</style>`)
)

// FinalizeHTML wraps rendered template output into a complete, branded,
// email-client-safe HTML document. Input that is already a full document
// (contains an <html> tag) passes through untouched except for logo
// substitution, so the result is idempotent.
func FinalizeHTML(rawHTML string, branding Branding) string {
	b := branding.withDefaults()

	if htmlTagPattern.MatchString(rawHTML) {
		return substituteLogo(rawHTML, b.LogoURL)
	}

	content := rawHTML
	var customStyles []string
	for {
		m := leadingStylePattern.FindStringSubmatch(content)
		if m == nil {
			break
		}
		customStyles = append(customStyles, strings.TrimSpace(m[1]))
		content = strings.TrimSpace(content[len(m[0]):])
	}

	styles := baseStylesheet(b)
	if len(customStyles) > 0 {
		styles += "\n" + strings.Join(customStyles, "\n")
	}

	doc := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
%s
</style>
</head>
<body style="margin:0;padding:0;background-color:%s;">
<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" style="background-color:%s;">
<tr>
<td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="width:600px;max-width:100%%;background-color:%s;border-radius:8px;">
<tr>
<td style="padding:32px;color:%s;font-family:Arial,Helvetica,sans-serif;font-size:16px;line-height:1.5;">
%s
</td>
</tr>
</table>
</td>
</tr>
</table>
</body>
</html>`, styles, b.BackgroundColor, b.BackgroundColor, b.ContentBackground, b.TextColor, content)

	return substituteLogo(doc, b.LogoURL)
}

func baseStylesheet(b Branding) string {
	return fmt.Sprintf(`body { background-color: %s; color: %s; font-family: Arial, Helvetica, sans-serif; }
a { color: %s; }
h1, h2, h3 { color: %s; }
.button { display: inline-block; padding: 12px 24px; background-color: %s; color: #ffffff; text-decoration: none; border-radius: 6px; }`,
		b.BackgroundColor, b.TextColor, b.PrimaryColor, b.AccentColor, b.PrimaryColor)
}

// substituteLogo replaces the logo token with an <img> when a logo URL is
// configured, or removes it so no dangling token reaches a recipient.
func substituteLogo(html, logoURL string) string {
	if !strings.Contains(html, LogoToken) {
		return html
	}
	if logoURL == "" {
		return strings.ReplaceAll(html, LogoToken, "")
	}
	img := fmt.Sprintf(`<img src="%s" alt="logo" style="max-height:48px;max-width:200px;" />`, logoURL)
	return strings.ReplaceAll(html, LogoToken, img)
}
