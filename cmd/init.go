package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/weftlabs/weft/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Scaffold a new weft project",
	Long: `Create a .weft.yml configuration file and a components directory with
example components.

Examples:
  weft init                       # Initialize in the current directory
  weft init myapp                 # Initialize in ./myapp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	configPath := filepath.Join(projectDir, ".weft.yml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	defaultConfig := config.Config{LogLevel: "info"}
	defaultConfig.Server.Host = "localhost"
	defaultConfig.Server.Port = 8120
	defaultConfig.Static.Prefix = "/static/components/"
	defaultConfig.Static.AllowedExt = []string{".css", ".js"}
	defaultConfig.Components.Roots = []string{"./components"}
	defaultConfig.Development.HotReload = true

	configBytes, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, configBytes, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	componentsDir := filepath.Join(projectDir, "components")
	if err := os.MkdirAll(componentsDir, 0o755); err != nil {
		return fmt.Errorf("creating components directory: %w", err)
	}

	for name, content := range exampleFiles {
		path := filepath.Join(componentsDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized weft project in %s\n", projectDir)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'weft serve' to start the preview server.")
	return nil
}

var exampleFiles = map[string]string{
	"hello.weft": `{% css hello.css %}
<section class="hello">
  <h1>Hello from weft</h1>
  {{component "badge"}}
</section>
`,
	"hello.css": `.hello {
  font-family: sans-serif;
  padding: 2rem;
}
`,
	"badge.weft": `{% css badge.css %}
{% js badge.js %}
<span class="badge">new</span>
`,
	"badge.css": `.badge {
  background: #2563eb;
  color: white;
  border-radius: 4px;
  padding: 0 0.5rem;
}
`,
	"badge.js": `console.log("badge loaded");
`,
}
