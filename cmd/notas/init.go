package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/notas/internal/config"
	"github.com/jackzampolin/notas/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a default config file",
	Long: `Write notas.yaml with every setting at its default value.

Without a path the file goes to the workspace (--workdir, default .).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			h, err := home.New(workDir, home.Layout{})
			if err != nil {
				return err
			}
			path = h.ConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(initCmd)
}
