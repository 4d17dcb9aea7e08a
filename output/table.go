// Package output renders reader state, secure-messaging sessions,
// FileSettings, and SDM NDEF templates as terminal tables.
package output

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ntag424ctl/ev2session"
	"ntag424ctl/sdm"
)

var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}
	colorOn      = text.Colors{text.FgHiGreen}
	colorOff     = text.Colors{text.FgHiRed}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(colorError.Sprintf("✗ Error: %s", msg))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}

// PrintReaderInfo prints the connected reader's name and ATR.
func PrintReaderInfo(readerName, atr string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("READER & CARD INFO")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Reader", readerName})
	t.AppendRow(table.Row{"ATR", atr})
	t.Render()
}

// PrintReaderList prints the available PC/SC readers.
func PrintReaderList(readers []string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("AVAILABLE SMART CARD READERS")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 8},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	if len(readers) == 0 {
		t.AppendRow(table.Row{"Status", colorWarn.Sprint("No readers found")})
	} else {
		for i, r := range readers {
			t.AppendRow(table.Row{fmt.Sprintf("[%d]", i), r})
		}
	}
	t.Render()
}

func onOff(v bool) string {
	if v {
		return colorOn.Sprint("on")
	}
	return colorOff.Sprint("off")
}

// PrintSessionInfo prints the established secure-messaging session's public
// state (not the keys).
func PrintSessionInfo(sess *ev2session.Session) {
	fmt.Println()
	t := newTable()
	t.SetTitle("EV2 SESSION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	t.AppendRow(table.Row{"Session ID", sess.ID()})
	t.AppendRow(table.Row{"Key Number", fmt.Sprintf("0x%02X", sess.KeyNo)})
	t.AppendRow(table.Row{"TI", fmt.Sprintf("%X", sess.TI)})
	t.AppendRow(table.Row{"CmdCtr", sess.CmdCtr})
	t.AppendRow(table.Row{"Authenticated", onOff(sess.Authenticated)})
	t.Render()
}

// PrintFileSettings renders a parsed FileSettings record.
func PrintFileSettings(fs *sdm.FileSettings) {
	fmt.Println()
	t := newTable()
	t.SetTitle("FILE SETTINGS")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 45},
	})
	t.AppendRow(table.Row{"FileType", fmt.Sprintf("0x%02X", fs.FileType)})
	t.AppendRow(table.Row{"FileOption", fmt.Sprintf("0x%02X (SDM=%s, CommMode=%d)", fs.FileOption, onOff(fs.SDMEnabled), fs.FileOption&0x03)})
	t.AppendRow(table.Row{"AccessRights", fmt.Sprintf("%02X %02X (RW=%X CAR=%X R=%X W=%X)",
		fs.AR1, fs.AR2, fs.AR1>>4, fs.AR1&0x0F, fs.AR2>>4, fs.AR2&0x0F)})
	t.AppendRow(table.Row{"FileSize", fmt.Sprintf("%d bytes", fs.FileSize)})
	t.Render()

	if !fs.SDMEnabled {
		return
	}

	fmt.Println()
	t2 := newTable()
	t2.SetTitle("SDM CONFIGURATION")
	t2.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 45},
	})
	t2.AppendRow(table.Row{"SDMOptions", fmt.Sprintf("0x%02X (UID=%s ReadCtr=%s EncFile=%s ASCII=%s)",
		fs.SDMOptions, onOff(fs.SDMOptions&0x80 != 0), onOff(fs.SDMOptions&0x40 != 0),
		onOff(fs.SDMOptions&0x10 != 0), onOff(fs.SDMOptions&0x01 != 0))})
	t2.AppendRow(table.Row{"SDM nibbles", fmt.Sprintf("Meta=%X File=%X CtrRet=%X", fs.SDMMetaRead, fs.SDMFileRead, fs.SDMCtrRet)})
	appendOffsetRow(t2, "UIDOffset", fs.UIDOffset)
	appendOffsetRow(t2, "SDMReadCtrOffset", fs.SDMReadCtrOffset)
	appendOffsetRow(t2, "PICCDataOffset", fs.PICCDataOffset)
	appendOffsetRow(t2, "SDMMACInputOffset", fs.SDMMACInputOffset)
	appendOffsetRow(t2, "SDMENCOffset", fs.SDMENCOffset)
	appendOffsetRow(t2, "SDMENCLength", fs.SDMENCLength)
	appendOffsetRow(t2, "SDMMACOffset", fs.SDMMACOffset)
	appendOffsetRow(t2, "SDMReadCtrLimit", fs.SDMReadCtrLimit)
	t2.Render()
}

func appendOffsetRow(t table.Writer, label string, v *uint32) {
	if v == nil {
		return
	}
	t.AppendRow(table.Row{label, fmt.Sprintf("0x%06X", *v)})
}

// PrintSDMTemplate renders the result of building an SDM NDEF template.
func PrintSDMTemplate(tpl *sdm.Template) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SDM NDEF TEMPLATE")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 45},
	})
	t.AppendRow(table.Row{"Length", fmt.Sprintf("%d bytes", len(tpl.NDEF))})
	t.AppendRow(table.Row{"UIDOffset", tpl.UIDOffset})
	t.AppendRow(table.Row{"CtrOffset", tpl.CtrOffset})
	t.AppendRow(table.Row{"MACInputOffset", tpl.MACInputOffset})
	t.AppendRow(table.Row{"MACOffset", tpl.MACOffset})
	t.AppendRow(table.Row{"NDEF (hex)", fmt.Sprintf("%X", tpl.NDEF)})
	t.Render()
}

// PrintSDMReadCounter renders a read-counter value, handling the
// no-counter-configured sentinel.
func PrintSDMReadCounter(counter uint32, noCounterSentinel uint32) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SDM READ COUNTER")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 20},
	})
	if counter == noCounterSentinel {
		t.AppendRow(table.Row{"Counter", colorWarn.Sprint("none (0xFFFFFF)")})
	} else {
		t.AppendRow(table.Row{"Counter", counter})
	}
	t.Render()
}

// PrintNDEFData renders a file's raw bytes as hex and, where printable, as
// ASCII, so a user can confirm an SDM-templated URL round-tripped onto the
// tag without this tool parsing NDEF TLVs itself.
func PrintNDEFData(data []byte) {
	fmt.Println()
	t := newTable()
	t.SetTitle("FILE CONTENTS")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Length", fmt.Sprintf("%d bytes", len(data))})
	t.AppendRow(table.Row{"Hex", fmt.Sprintf("%X", data)})
	t.AppendRow(table.Row{"ASCII", asciiPreview(data)})
	t.Render()
}

func asciiPreview(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 0x20 && b < 0x7F {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// TestResult is one conformance check's outcome (see the conformance
// package).
type TestResult struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PrintTestSummary prints a conformance suite's pass/fail breakdown.
func PrintTestSummary(results []TestResult) {
	if len(results) == 0 {
		PrintWarning("No test results")
		return
	}

	passed, failed := 0, 0
	var failedTests []string
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
			failedTests = append(failedTests, r.Name)
		}
	}
	passRate := float64(passed) / float64(len(results)) * 100

	fmt.Println()
	t := newTable()
	t.SetTitle("CONFORMANCE SUMMARY")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 20},
		{Number: 2, Colors: colorValue, WidthMin: 15},
	})
	t.AppendRow(table.Row{"Total Checks", len(results)})
	t.AppendRow(table.Row{"Passed", colorSuccess.Sprintf("%d", passed)})
	t.AppendRow(table.Row{"Failed", colorError.Sprintf("%d", failed)})
	t.AppendRow(table.Row{"Pass Rate", fmt.Sprintf("%.1f%%", passRate)})
	t.Render()

	fmt.Println()
	t2 := newTable()
	t2.SetTitle("DETAILED RESULTS")
	t2.AppendHeader(table.Row{"Status", "Category", "Check", "Result"})
	t2.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 6},
		{Number: 2, Colors: colorLabel, WidthMin: 12},
		{Number: 3, Colors: colorValue, WidthMin: 35},
		{Number: 4, Colors: colorValue, WidthMin: 40},
	})
	for _, r := range results {
		status := colorSuccess.Sprint("✓")
		result := r.Actual
		if !r.Passed {
			status = colorError.Sprint("✗")
			result = r.Error
		}
		if len(result) > 40 {
			result = result[:37] + "..."
		}
		t2.AppendRow(table.Row{status, r.Category, r.Name, result})
	}
	t2.Render()
}
