// Package docsite generates the HTML command reference for pop-upgrade.
//
// The cobra command tree is first written out as Markdown, one page per
// command, and the Markdown tree is then rendered to HTML with pretty URLs.
package docsite

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed page.html
var defaultTemplate string

// Generator renders a directory of Markdown pages to HTML.
type Generator struct {
	SourceDir string
	OutputDir string
	md        goldmark.Markdown
	tmpl      *template.Template
}

// PageData holds data passed to the HTML template.
type PageData struct {
	Title   string
	Content template.HTML
}

// NewGenerator creates a generator. An empty templateFile selects the
// built-in page template.
func NewGenerator(sourceDir, outputDir, templateFile string) (*Generator, error) {
	g := &Generator{
		SourceDir: sourceDir,
		OutputDir: outputDir,
	}

	// Flag tables need GFM tables; usage text may carry bare URLs
	g.md = goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	// Load the template, falling back to the embedded page
	tmplContent := defaultTemplate
	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return nil, fmt.Errorf("reading template: %w", err)
		}
		tmplContent = string(data)
	}

	var err error
	g.tmpl, err = template.New("docs").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	return g, nil
}

// Generate walks the source directory and writes one HTML page per
// Markdown file into the output directory.
func (g *Generator) Generate() error {
	// Ensure output directory exists
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	return filepath.WalkDir(g.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Skip directories and anything that is not a Markdown page
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		return g.processFile(path)
	})
}

// processFile converts a single Markdown page to HTML.
func (g *Generator) processFile(inputPath string) error {
	// Read the markdown content
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	// Convert markdown to HTML
	var htmlBuf bytes.Buffer
	if err := g.md.Convert(content, &htmlBuf); err != nil {
		return fmt.Errorf("converting %s: %w", inputPath, err)
	}

	// Calculate output path and make sure its directory exists
	outputPath := MapPath(g.SourceDir, g.OutputDir, inputPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outputPath, err)
	}

	// Subcommand links point at .md pages; rewrite them to pretty URLs
	data := PageData{
		Title:   ExtractTitle(content, inputPath),
		Content: template.HTML(RewriteLinks(htmlBuf.String())),
	}

	// Render the template
	var outBuf bytes.Buffer
	if err := g.tmpl.Execute(&outBuf, data); err != nil {
		return fmt.Errorf("executing template for %s: %w", inputPath, err)
	}

	// Write the output file
	if err := os.WriteFile(outputPath, outBuf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// mdLinkRegex matches href attributes that point to .md files.
// Captures: (1) path before .md (2) .md extension (3) optional anchor
var mdLinkRegex = regexp.MustCompile(`href="([^"]*?)(\.md)(#[^"]*)?"`)

// RewriteLinks turns links to .md pages into pretty URLs.
// href="./release/upgrade.md#flags" becomes href="./release/upgrade/#flags",
// and ./release/index.md becomes ./release/.
func RewriteLinks(html string) string {
	return mdLinkRegex.ReplaceAllStringFunc(html, func(match string) string {
		submatches := mdLinkRegex.FindStringSubmatch(match)
		if len(submatches) < 3 {
			return match
		}

		path := submatches[1] // Path before .md
		anchor := ""          // Optional anchor
		if len(submatches) > 3 {
			anchor = submatches[3]
		}

		switch {
		case strings.HasSuffix(path, "/index"):
			// ./release/index.md -> ./release/
			path = strings.TrimSuffix(path, "index")
		case path == "index":
			// index.md -> ./
			path = "./"
		default:
			// ./status.md -> ./status/
			path += "/"
		}

		return fmt.Sprintf(`href="%s%s"`, path, anchor)
	})
}

// ExtractTitle returns the first H1 heading, falling back to the file name.
func ExtractTitle(content []byte, filePath string) string {
	matches := h1Regex.FindSubmatch(content)
	if len(matches) > 1 {
		return strings.TrimSpace(string(matches[1]))
	}

	// Fallback to filename without extension
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MapPath converts a source Markdown path to an output HTML path.
// index.md stays index.html; any other page becomes a directory holding
// index.html, so docs/status.md is served at /status/.
// Example: docs/cli/release/upgrade/systemd.md -> site/cli/release/upgrade/systemd/index.html
// Example: docs/cli/release/index.md -> site/cli/release/index.html
func MapPath(sourceDir, outputDir, inputPath string) string {
	// Get the relative path from source directory
	relPath, err := filepath.Rel(sourceDir, inputPath)
	if err != nil {
		// Fallback: use the filename
		relPath = filepath.Base(inputPath)
	}

	// Remove .md extension
	relPath = strings.TrimSuffix(relPath, ".md")

	// Group pages keep their index.html
	if filepath.Base(relPath) == "index" {
		return filepath.Join(outputDir, relPath+".html")
	}

	// Otherwise, create a directory with the same name and put index.html inside
	return filepath.Join(outputDir, relPath, "index.html")
}
