package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph/config"
	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph/preset"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage named generation configurations",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a configuration file as a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			return fmt.Errorf("--config is required")
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := preset.SaveConfig(store, args[0], cfg); err != nil {
			return err
		}
		logger.Info("preset saved", "name", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "saved preset %s\n", args[0])
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		infos, err := store.List()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tUPDATED\tSIZE")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, info.UpdatedAt.Format("2006-01-02 15:04:05"), info.Size)
		}
		return tw.Flush()
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		cfg, err := preset.LoadConfig(store, args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(args[0])
	},
}

func init() {
	presetSaveCmd.Flags().StringP("config", "c", "", "Configuration file (.yaml, .yml, .json)")
	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetDeleteCmd)
	rootCmd.AddCommand(presetCmd)
}
