package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DVARGAS117/Botrading-sub003/config"
	"github.com/DVARGAS117/Botrading-sub003/magic"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for bot instances.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  botrading config init --output bot2.yaml
  botrading config validate --file bot2.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  botrading config init --output bot2.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded, and show the
magic numbers this instance would stamp on its operations.

Example:
  botrading config validate --file bot2.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "botrading.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  botrading run --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	botID, _ := cfg.Bot.FoldedID()
	orderType, _ := cfg.Bot.ParsedOrderType()

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Bot: %d (IA config %d, %s orders)\n", botID, cfg.Bot.IAConfigID, orderType)
	fmt.Printf("  Risk: %.2f%% per operation\n", cfg.Risk.Percent)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	fmt.Println("  Identities:")
	for _, sym := range cfg.Symbols {
		n, err := magic.Encode(botID, cfg.Bot.IAConfigID, orderType, sym.Sequence)
		if err != nil {
			return fmt.Errorf("identity for %s: %w", sym.Name, err)
		}
		fmt.Printf("    %-10s %d\n", sym.Name, n)
	}
	return nil
}
