// Package cmd is the cobra command tree for the lsmcp binary: global flags
// for the workspace root and logging, and the serve subcommand that boots
// the MCP stdio server.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YZTangent/lsmcp/pkg/logger"
)

var (
	rootDirFlag  string
	logLevelFlag string
	logFileFlag  string
)

// RootCmd is the top-level "lsmcp" command.
var RootCmd = &cobra.Command{
	Use:   "lsmcp",
	Short: "Bridge Model Context Protocol clients to Language Server Protocol servers",
	Long: `lsmcp spawns language servers (gopls, rust-analyzer, pyright,
typescript-language-server, ...) on demand and exposes their
goto-definition, find-references, hover, document-symbols, diagnostics and
workspace-symbols operations as Model Context Protocol tools over stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLogLevel(logLevelFlag)
		if err != nil {
			return err
		}
		log, err := logger.InitializeLogger(level, logFileFlag)
		if err != nil {
			return err
		}
		logger.SetDefault(log)
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&rootDirFlag, "root", ".", "workspace root directory passed to spawned LSP servers")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "Info", "log level: Trace, Debug, Info, Warning, Off")
	RootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "/dev/stderr", "log output destination")

	viper.SetEnvPrefix("LSMCP")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("root", RootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("log-level", RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-file", RootCmd.PersistentFlags().Lookup("log-file"))

	RootCmd.AddCommand(serveCmd)
}

// Execute runs the command tree; it is the entry point called from main.
func Execute() error {
	return RootCmd.Execute()
}
