package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ntag424ctl/conformance"
	"ntag424ctl/output"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run offline conformance checks (no card required)",
	Long: `Run the cryptographic conformance checks against the vendor's
published test vectors and invariants: CMAC vectors, padding round-trips,
the ChangeKey CRC32 variant, and SDM NDEF template construction. None of
these checks touch a reader.`,
	Run: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(cmd *cobra.Command, args []string) {
	results := conformance.RunAll()
	if outputJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			printError(fmt.Sprintf("JSON export failed: %v", err))
			return
		}
		fmt.Println(string(data))
		return
	}
	output.PrintTestSummary(results)
}
