package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools by category",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	for _, category := range a.registry.Categories() {
		fmt.Printf("%s:\n", category)
		for _, def := range a.registry.List(category) {
			fmt.Printf("  %-20s %s\n", def.Name, def.Description)
		}
	}
	fmt.Printf("\n%d tools registered\n", a.registry.Len())
	return nil
}
