package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "List supported images under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	e.startService()
	defer e.Close()

	results, err := e.svc.ListImagesUnderDirectory(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(results)
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No images found")
		return nil
	}
	for _, r := range results {
		fmt.Println(r.RelPath)
	}
	fmt.Printf("\n%d images\n", len(results))
	return nil
}
