package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tesselslate/xmacro/internal/playback"
	"github.com/tesselslate/xmacro/internal/ui"
	"github.com/tesselslate/xmacro/internal/watch"
)

var (
	flagSkipInvalid bool
	flagWatch       bool
)

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a macro script",
	Long: `Play the macro script in FILE, or standard input if FILE is "-".

With --watch, the script is played again every time FILE is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagSkipInvalid, "skip-invalid", false, "skip malformed lines instead of refusing to play")
	playCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "play again whenever FILE changes")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	path := args[0]
	if flagWatch && path == "-" {
		return errors.New("cannot watch standard input")
	}
	if flagSkipInvalid {
		profile.Playback.OnInvalid = "skip"
	}

	session, err := openSession()
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.RequireXTest(); err != nil {
		return err
	}
	engine := &playback.Engine{
		Display:    session,
		Log:        logger,
		EventDelay: profile.Playback.EventDelay,
		OnInvalid:  profile.Policy(),
	}

	ctx := cmd.Context()
	if err := playFile(ctx, engine, path); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}

	watcher, err := watch.NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		return err
	}
	go watcher.Watch(ctx)
	term.Status(ui.StatusInfo, "Watching %s for changes", path)
	term.Hint("Press Ctrl+C to stop.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Updates:
			logger.Info("%s changed, playing again", path)
			if err := playFile(ctx, engine, path); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Warn("Playback failed: %s", err)
				term.Status(ui.StatusFail, "%s", err)
			}
		case err := <-watcher.Errors:
			if err.Fatal {
				return errors.Wrap(err, "watch")
			}
			logger.Warn("Watcher error: %s", err)
		}
	}
}

// playFile plays the script at path. Interrupting playback is not an error.
func playFile(ctx context.Context, engine *playback.Engine, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open macro")
		}
		defer file.Close()
		r = file
	}

	term.Status(ui.StatusBusy, "Playing %s", path)
	start := time.Now()
	err := engine.RunScript(ctx, r)
	switch {
	case errors.Is(err, context.Canceled):
		term.Status(ui.StatusInfo, "Playback interrupted")
		if flagWatch {
			return err
		}
		return nil
	case err != nil:
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	logger.Info("Played %s in %s", path, elapsed)
	term.Status(ui.StatusOk, "Played %s in %s", path, elapsed)
	return nil
}
