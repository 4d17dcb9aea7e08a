package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ntag424ctl/ev2session"
	"ntag424ctl/ops"
	"ntag424ctl/output"
)

var (
	readListOnly bool
	readFileNo   int
	readAuth     bool
	readShowNDEF bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read FileSettings and the SDM read counter",
	Long: `Read a file's FileSettings and, when SDM is enabled, its SDM read
counter. Tries the plain (unauthenticated) variant first. With --auth, an
EV2 session is established up front and used only when the plain read
fails.

Examples:
  ntag424ctl read --list
  ntag424ctl read --file-no 2
  ntag424ctl read --file-no 2 --auth --key-no 0
  ntag424ctl read --file-no 2 --show-ndef`,
	RunE: runRead,
}

func init() {
	readCmd.Flags().BoolVar(&readListOnly, "list", false, "List available readers and exit")
	readCmd.Flags().IntVar(&readFileNo, "file-no", -1, "File number to read (default: config file_no)")
	readCmd.Flags().BoolVar(&readAuth, "auth", false, "Authenticate before reading (required on cards that restrict plain reads)")
	readCmd.Flags().BoolVar(&readShowNDEF, "show-ndef", false, "Also read and print the raw file contents, to confirm an SDM template round-tripped onto the tag")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	if readListOnly {
		return listReaders()
	}

	fileNo := byte(readFileNo)
	if readFileNo < 0 {
		fileNo = cfg.FileNo
	}

	reader, err := connectReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	var sess *ev2session.Session
	if readAuth {
		authKey, err := resolvedKey()
		if err != nil {
			return err
		}
		sess, err = authenticate(reader, resolvedKeyNo(), authKey)
		if err != nil {
			return err
		}
	}

	fs, err := ops.GetFileSettings(reader, sess, fileNo)
	if err != nil {
		return fmt.Errorf("GetFileSettings failed: %w", err)
	}
	if !outputJSON {
		output.PrintFileSettings(fs)
	}

	if !fs.SDMEnabled {
		return nil
	}

	counter, err := ops.GetSDMReadCounter(reader, sess, fileNo)
	if err != nil {
		printWarning(fmt.Sprintf("GetSDMReadCounter failed: %v", err))
		return nil
	}
	if !outputJSON {
		output.PrintSDMReadCounter(counter, ops.NoCounterOffset)
	}

	if readShowNDEF {
		body, err := ops.ReadData(reader, sess, fileNo, 0, fs.FileSize)
		if err != nil {
			printWarning(fmt.Sprintf("ReadData failed: %v", err))
			return nil
		}
		if !outputJSON {
			output.PrintNDEFData(body)
		}
	}
	return nil
}
