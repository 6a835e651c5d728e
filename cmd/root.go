// Package cmd implements the xmacro command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tesselslate/xmacro/internal/cfg"
	"github.com/tesselslate/xmacro/internal/log"
	"github.com/tesselslate/xmacro/internal/macro"
	"github.com/tesselslate/xmacro/internal/ui"
	"github.com/tesselslate/xmacro/internal/x11"
)

var (
	// Global flags.
	flagDisplay string
	flagConfig  string
	flagVerbose int
)

var (
	version string
	profile cfg.Profile
	logger  *log.Logger
	term    = ui.New()
)

var rootCmd = &cobra.Command{
	Use:   "xmacro",
	Short: "Record and play back X11 input macros",
	Long: `xmacro records keyboard and pointer input from an X display into a
plain text macro script, and plays macro scripts back as synthesized input.

Recording uses the RECORD extension and playback uses the XTEST extension.
Both must be available on the X server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits with a non-zero status if it
// fails.
func Execute(v string) {
	version = strings.TrimSpace(v)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		report(err)
	}
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDisplay, "display", "d", "", "X display to connect to (default: $DISPLAY)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "configuration file (default: $XDG_CONFIG_HOME/xmacro/config.toml)")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "log to standard error (-v for debug, -vv for verbose)")
}

// setup loads the configuration and creates the logger.
func setup(cmd *cobra.Command, args []string) error {
	p, err := cfg.Load(flagConfig)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if flagDisplay != "" {
		p.Display = flagDisplay
	}
	conf := p.LogConf()
	conf.DisableConsole = flagVerbose == 0
	switch {
	case flagVerbose == 1 && conf.LogLevel < log.DEBUG:
		conf.LogLevel = log.DEBUG
	case flagVerbose > 1:
		conf.LogLevel = log.VERBOSE
	}
	logger, err = log.DefaultLogger("xmacro", conf)
	if err != nil {
		return errors.Wrap(err, "open log")
	}
	x11.SetProtocolLog(protocolLog{logger})
	logger.Info("Started xmacro %s", version)
	profile = p
	return nil
}

// openSession connects to the configured display.
func openSession() (*x11.Session, error) {
	session, err := x11.Open(profile.Display)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to display %s (root window %#x)", session.DisplayName(), session.Root())
	return session, nil
}

// report prints a fatal error for the user.
func report(err error) {
	var (
		connErr   *x11.ConnectionError
		capErr    *x11.CapabilityError
		grabErr   *x11.GrabError
		malformed *macro.MalformedError
		msg       string
	)
	switch {
	case errors.As(err, &connErr):
		msg = fmt.Sprintf("Failed to connect to the X server: %s", err)
	case errors.As(err, &capErr):
		msg = fmt.Sprintf("The X server does not support %s.", capErr.Extension)
	case errors.As(err, &grabErr):
		msg = "Could not grab the keyboard. Another program may be holding it."
	case errors.As(err, &malformed):
		msg = fmt.Sprintf("Invalid macro: %s", malformed)
	default:
		msg = fmt.Sprintf("Failed: %s", err)
	}
	if logger != nil {
		logger.Error("%s", err)
	}
	term.Status(ui.StatusFail, "%s", msg)
}

// protocolLog forwards diagnostics from the X protocol library to the
// logger.
type protocolLog struct {
	l *log.Logger
}

func (p protocolLog) Write(b []byte) (int, error) {
	p.l.Debug("%s", strings.TrimSpace(string(b)))
	return len(b), nil
}
