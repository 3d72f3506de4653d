package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/registry"
	"github.com/weftlabs/weft/internal/scanner"
	"github.com/weftlabs/weft/internal/types"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all discovered components",
	Long: `List the components found under the configured roots together with
the assets each one declares.

Examples:
  weft list                       # Table output
  weft list -f json               # JSON output
  weft list -f yaml               # YAML output`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	addFlagValidation(listCmd, "format", validateOneOf("table", "json", "yaml"))
}

type listedComponent struct {
	Name string   `json:"name" yaml:"name"`
	Root string   `json:"root,omitempty" yaml:"root,omitempty"`
	File string   `json:"file" yaml:"file"`
	CSS  []string `json:"css,omitempty" yaml:"css,omitempty"`
	JS   []string `json:"js,omitempty" yaml:"js,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	roots := registry.NewRoots()
	for _, folder := range cfg.Components.Roots {
		roots.AddFolder(folder)
	}
	eng := engine.New(registry.NewComponentRegistry(), engine.Options{MountPrefix: cfg.Static.Prefix})

	componentScanner := scanner.New(eng, roots, newLogger(cfg))
	if err := componentScanner.ScanAll(context.Background()); err != nil {
		return fmt.Errorf("scanning components: %w", err)
	}
	for _, tmplErr := range componentScanner.Errors().TemplateErrors() {
		fmt.Fprintln(os.Stderr, "warning:", tmplErr.Error())
	}

	components := collectListed(eng)

	switch listFormat {
	case "table":
		return writeTable(os.Stdout, components)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(components)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(components)
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", listFormat)
	}
}

func collectListed(eng *engine.Engine) []listedComponent {
	var components []listedComponent
	for _, info := range eng.Registry().GetAll() {
		components = append(components, toListed(info))
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
	return components
}

func toListed(info *types.ComponentInfo) listedComponent {
	return listedComponent{
		Name: info.Name,
		Root: info.Root,
		File: info.FilePath,
		CSS:  info.Assets.CSS,
		JS:   info.Assets.JS,
	}
}

func writeTable(out *os.File, components []listedComponent) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tROOT\tCSS\tJS\tFILE")
	for _, c := range components {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.Name, c.Root, strings.Join(c.CSS, ","), strings.Join(c.JS, ","), c.File)
	}
	return w.Flush()
}
