package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tesselslate/xmacro/internal/cfg"
	"github.com/tesselslate/xmacro/internal/res"
	"github.com/tesselslate/xmacro/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// The configuration may not exist or be valid yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to $XDG_CONFIG_HOME/xmacro/config.toml.
An existing configuration file is never overwritten.

An example macro is also written to the data directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.MakeProfile()
		if err != nil {
			return err
		}
		term.Status(ui.StatusOk, "Wrote configuration to %s", path)
		dir, err := res.WriteResources()
		if err != nil {
			return errors.Wrap(err, "write resources")
		}
		term.Hint("An example macro is in %s.", dir)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.GetPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
