package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ntag424ctl/card"
	"ntag424ctl/ops"
)

var (
	ckNewKeyHex string
	ckOldKeyHex string
	ckTargetKey int
)

var changeKeyCmd = &cobra.Command{
	Use:   "changekey",
	Short: "Rotate an application key (ChangeKey)",
	Long: `Replace an application key over an authenticated EV2 session.

Authenticates with --key-no/--key (the current key for the number that
authorizes key changes), then sends ChangeKey for --target-key.

Examples:
  ntag424ctl changekey --key-no 0 --target-key 1 \
    --old-key 00000000000000000000000000000000 \
    --new-key 0102030405060708090A0B0C0D0E0F10`,
	RunE: runChangeKey,
}

func init() {
	changeKeyCmd.Flags().IntVar(&ckTargetKey, "target-key", -1, "Key number to overwrite (required)")
	changeKeyCmd.Flags().StringVar(&ckOldKeyHex, "old-key", "", "Current value of the target key, 32 hex chars (default: all-zero)")
	changeKeyCmd.Flags().StringVar(&ckNewKeyHex, "new-key", "", "New value for the target key, 32 hex chars (required)")
	rootCmd.AddCommand(changeKeyCmd)
}

func runChangeKey(cmd *cobra.Command, args []string) error {
	if ckTargetKey < 0 {
		return fmt.Errorf("--target-key is required")
	}
	if ckNewKeyHex == "" {
		return fmt.Errorf("--new-key is required")
	}

	authKey, err := resolvedKey()
	if err != nil {
		return err
	}

	var oldKey [16]byte
	if ckOldKeyHex != "" {
		oldKey, err = card.ParseKeyHex(ckOldKeyHex)
		if err != nil {
			return fmt.Errorf("invalid --old-key: %w", err)
		}
	}
	newKey, err := card.ParseKeyHex(ckNewKeyHex)
	if err != nil {
		return fmt.Errorf("invalid --new-key: %w", err)
	}

	reader, err := connectReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	sess, err := authenticate(reader, resolvedKeyNo(), authKey)
	if err != nil {
		return err
	}

	if err := ops.ChangeKey(reader, sess, byte(ckTargetKey), oldKey, newKey, byte(keyVersion)); err != nil {
		return fmt.Errorf("ChangeKey failed: %w", err)
	}
	printSuccess(fmt.Sprintf("Key %d changed successfully", ckTargetKey))
	return nil
}
