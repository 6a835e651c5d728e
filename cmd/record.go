package cmd

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tesselslate/xmacro/internal/cfg"
	"github.com/tesselslate/xmacro/internal/record"
	"github.com/tesselslate/xmacro/internal/ui"
)

var (
	flagKeys     string
	flagNoMotion bool
	flagDelays   bool
	flagStopKey  string
)

var recordCmd = &cobra.Command{
	Use:   "record [FILE]",
	Short: "Record a macro script",
	Long: `Record keyboard and pointer input into FILE, or standard output if FILE
is omitted.

Before recording starts, press the key which should stop the recording. It is
never written to the macro. A stop key can also be given with --stop-key or in
the configuration file, either as a keysym name (e.g. "Escape") or as a raw
keycode (e.g. "code9").`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&flagKeys, "keys", "", `how keys are written: "sym" or "code"`)
	recordCmd.Flags().BoolVar(&flagNoMotion, "no-motion", false, "do not record pointer motion")
	recordCmd.Flags().BoolVar(&flagDelays, "delays", false, "record the time between events")
	recordCmd.Flags().StringVar(&flagStopKey, "stop-key", "", "key which stops recording")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	if flagKeys != "" {
		profile.Record.Keys = flagKeys
	}
	if flagNoMotion {
		profile.Record.Motion = false
	}
	if flagDelays {
		profile.Record.Delays = true
	}
	if flagStopKey != "" {
		key, err := cfg.ParseStopKey(flagStopKey)
		if err != nil {
			return errors.Wrap(err, "parse stop key")
		}
		profile.Record.StopKey = key
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if len(args) == 1 {
		file, err := os.Create(args[0])
		if err != nil {
			return errors.Wrap(err, "create macro")
		}
		defer file.Close()
		out = file
	}

	session, err := openSession()
	if err != nil {
		return err
	}
	if err := session.RequireRecord(); err != nil {
		session.Close()
		return err
	}

	// From here on the engine owns the session and closes it.
	engine := record.New(session, logger, profile.RecordOptions())
	if profile.Record.StopKey.IsSet() {
		code, err := profile.Record.StopKey.Resolve(session)
		if err != nil {
			session.Close()
			return err
		}
		if err := engine.SetStopKey(code); err != nil {
			session.Close()
			return err
		}
	} else {
		term.Status(ui.StatusBusy, "Press the key you want to use to stop recording.")
		if _, err := engine.SelectStopKey(cmd.Context()); err != nil {
			if errors.Is(err, context.Canceled) {
				term.Status(ui.StatusInfo, "Recording cancelled")
				return nil
			}
			return err
		}
	}
	code, _ := engine.StopKey()
	name := session.CodeToSymbol(code)
	if name == "" {
		name = "keycode " + strconv.Itoa(int(code))
	}
	term.Status(ui.StatusBusy, "Recording. Press %s to stop.", name)

	stats, err := engine.Record(cmd.Context(), out)
	switch {
	case errors.Is(err, context.Canceled):
		term.Status(ui.StatusInfo, "Recording interrupted")
	case err != nil:
		return err
	default:
		term.Status(ui.StatusOk, "Recording finished")
	}
	term.Summary("Instructions", [][2]string{
		{"written", strconv.Itoa(stats.Written)},
		{"ignored", strconv.Itoa(stats.Ignored)},
		{"discarded", strconv.Itoa(stats.Discarded)},
	})
	return nil
}
