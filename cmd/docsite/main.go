// Command docsite generates the HTML command reference for pop-upgrade.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tessro/pop-upgrade/internal/cli"
	"github.com/tessro/pop-upgrade/internal/docsite"
)

func main() {
	sourceDir := flag.String("source", "docs/cli", "Directory the Markdown command pages are written to")
	outputDir := flag.String("out", "site/public/docs/cli", "Output directory for generated HTML files")
	templateFile := flag.String("template", "", "HTML template file (default: built-in)")
	flag.Parse()

	if err := docsite.WriteCommandDocs(cli.Root(), *sourceDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing command pages: %v\n", err)
		os.Exit(1)
	}

	gen, err := docsite.NewGenerator(*sourceDir, *outputDir, *templateFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing generator: %v\n", err)
		os.Exit(1)
	}

	if err := gen.Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating docs: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Documentation generated in", *outputDir)
}
