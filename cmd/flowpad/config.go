package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flowpad/internal/config"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(
		configShowCmd(a),
		configInitCmd(),
	)

	return cmd
}

func configShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			source := a.cfgPath
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintln(out, Subtle.Sprintf("# source: %s", source))
			fmt.Fprintln(out, Subtle.Sprint("# "+strings.ReplaceAll(a.cfg.Summary(), "\n", "\n# ")))

			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func configInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				Warn.Fprintf(cmd.OutOrStdout(), "%s already exists (use --force to overwrite)\n", path)
				return nil
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Good.Sprint("wrote"), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write (default: XDG config location)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
