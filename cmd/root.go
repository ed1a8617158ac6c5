package cmd

import (
	"embed"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nodeflow/internal/config"
)

var version = "0.1.0"

var (
	assets  embed.FS
	cfgPath string
	cfg     *config.Config
)

// SetAssets sets the embedded frontend served by the desktop shell.
func SetAssets(fs embed.FS) {
	assets = fs
}

var rootCmd = &cobra.Command{
	Use:   "nodeflow",
	Short: "nodeflow: node-graph canvas for generation pipelines",
	Long: Brand.Sprint("nodeflow") + " lays out image, video and description nodes on a canvas\n" +
		Subtle.Sprint("Runs the desktop editor by default; `nodeflow mcp` serves the canvas to AI agents"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
		slog.SetDefault(config.NewLogger(os.Stderr))
		config.ApplyLogLevel(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI()
	},
}

func init() {
	rootCmd.SetVersionTemplate("nodeflow {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.Path(), "Path to config.toml")

	rootCmd.AddCommand(
		mcpCmd(),
		listCmd(),
		inspectCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
