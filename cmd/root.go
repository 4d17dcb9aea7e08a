package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
	"ntag424ctl/internal/config"
	"ntag424ctl/output"
)

var (
	version = "1.0.0"

	// Global flags
	readerIndex int
	keyNoFlag   int
	keyHex      string
	keyVersion  int
	configFile  string
	outputJSON  bool

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "ntag424ctl",
	Short: "NTAG 424 DNA reader/provisioner",
	Long: `ntag424ctl v` + version + `
Provision and inspect NXP NTAG 424 DNA tags over PC/SC.

This tool supports:
  - EV2-First mutual authentication and secure messaging
  - Reading and changing FileSettings, including SUN/SDM configuration
  - Building SDM NDEF templates (UID/counter/MAC mirroring)
  - Key rotation (ChangeKey)
  - Reading the SDM read counter
  - Offline conformance checks against the vendor's cryptographic spec`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&readerIndex, "reader", "r", -1,
		"Reader index (use 'ntag424ctl read --list' to see available readers)")
	rootCmd.PersistentFlags().IntVarP(&keyNoFlag, "key-no", "k", -1,
		"Application key number to authenticate with before privileged operations")
	rootCmd.PersistentFlags().StringVar(&keyHex, "key", "",
		"Application key, 16 bytes hex (32 hex chars); all-zero factory key if omitted")
	rootCmd.PersistentFlags().IntVar(&keyVersion, "key-version", 0,
		"Key version byte to use where applicable")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to a config file (default: $XDG_CONFIG_HOME/ntag424ctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Output in JSON format")

	cobra.OnInitialize(loadConfig)
}

func loadConfig() {
	loaded, err := config.Load(configFile)
	if err != nil {
		if !outputJSON {
			output.PrintWarning(fmt.Sprintf("Config load failed, using built-in defaults: %v", err))
		}
		return
	}
	cfg = *loaded
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the current version.
func GetVersion() string {
	return version
}

// resolvedKeyNo returns the --key-no flag value if set, else the config
// default.
func resolvedKeyNo() byte {
	if keyNoFlag >= 0 {
		return byte(keyNoFlag)
	}
	return cfg.KeyNo
}

// resolvedKey parses --key (hex) or returns the all-zero factory default.
func resolvedKey() ([16]byte, error) {
	var key [16]byte
	if keyHex == "" {
		return key, nil
	}
	parsed, err := card.ParseKeyHex(keyHex)
	if err != nil {
		return key, fmt.Errorf("invalid --key: %w", err)
	}
	return parsed, nil
}

// connectReader selects and connects to a PC/SC reader, printing reader info
// unless JSON output is requested, and then selects the NDEF application.
// Commands that need no card (like `read --list`) return before calling it.
//
// Reader selection precedence: --reader flag, then the config file's
// reader_index, then auto-detection (which only succeeds when exactly one
// reader is attached).
func connectReader() (*card.Reader, error) {
	idx := readerIndex
	if idx < 0 {
		idx = cfg.ReaderIndex
	}

	if idx <= 0 {
		readers, err := card.ListReaders()
		if err != nil {
			return nil, fmt.Errorf("failed to list readers: %w", err)
		}
		if len(readers) == 0 {
			return nil, fmt.Errorf("no smart card readers found")
		}
		if len(readers) == 1 {
			idx = 0
			if !outputJSON {
				output.PrintSuccess(fmt.Sprintf("Auto-selected reader: %s", readers[0]))
			}
		} else if readerIndex < 0 && cfg.ReaderIndex == 0 {
			output.PrintReaderList(readers)
			return nil, fmt.Errorf("multiple readers found, use -r <index> to select one")
		}
	}

	reader, err := card.Connect(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := reader.Reconnect(false); err != nil {
		if err := reader.Reconnect(true); err != nil {
			if !outputJSON {
				output.PrintWarning(fmt.Sprintf("Card reset failed: %v (continuing anyway)", err))
			}
		}
	}

	if !outputJSON {
		output.PrintReaderInfo(reader.Name(), reader.ATRHex())
	}

	if _, err := card.SelectNDEFApp(reader); err != nil {
		reader.Close()
		return nil, fmt.Errorf("failed to select NDEF application: %w", err)
	}

	return reader, nil
}

// authenticate runs the EV2-First handshake against keyNo with key and
// returns the established session.
func authenticate(reader *card.Reader, keyNo byte, key [16]byte) (*ev2session.Session, error) {
	if !outputJSON {
		output.PrintSuccess(fmt.Sprintf("Authenticating with key %d (EV2-First)...", keyNo))
	}
	sess, err := ev2session.AuthenticateEV2First(reader, key, keyNo, ev2session.DefaultRandomSource)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !outputJSON {
		output.PrintSuccess("Authenticated")
		output.PrintSessionInfo(sess)
	}
	return sess, nil
}
