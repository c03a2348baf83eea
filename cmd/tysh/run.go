package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/tysh/config"
	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/layout"
	"github.com/wippyai/tysh/loader"
	"github.com/wippyai/tysh/shell"
	"github.com/wippyai/tysh/snapshot"
	"github.com/wippyai/tysh/typedb"
)

func run(cmd *cobra.Command, path string, o *options) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	loader.SetLogger(log.Named("loader"))
	layout.SetLogger(log.Named("layout"))
	shell.SetLogger(log.Named("shell"))
	snapshot.SetLogger(log.Named("snapshot"))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Load(fmt.Sprintf("read %s", path), err)
	}
	db, err := loadTypes(cmd.Context(), data, cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stdinTTY := isTerminal(os.Stdin)
	stdoutTTY := isTerminal(os.Stdout)
	colorOn := cfg.Shell.Color.Resolve(stdoutTTY)
	opts := shell.Options{MaxDepth: cfg.Layout.MaxDepth}

	if len(o.commands) > 0 {
		opts.Theme = lineTheme(colorOn)
		s := shell.NewSession(db, out, opts)
		for _, line := range o.commands {
			if s.Exec(line) {
				break
			}
		}
		return nil
	}

	if cfg.Shell.UI.Resolve(stdinTTY && stdoutTTY) {
		opts.Theme = shell.PlainTheme{}
		if colorOn {
			opts.Theme = shell.TUITheme{}
		}
		s := shell.NewSession(db, out, opts)
		s.Banner()
		return shell.RunTUI(s, shell.TUIOptions{
			Prompt:      cfg.Shell.Prompt,
			HistorySize: cfg.Shell.HistorySize,
		})
	}

	opts.Theme = lineTheme(colorOn)
	s := shell.NewSession(db, out, opts)
	s.Banner()
	return shell.RunLines(s, cmd.InOrStdin(), cfg.Shell.Prompt)
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, o *options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("ui") {
		cfg.Shell.UI = config.Mode(o.ui)
	}
	if flags.Changed("color") {
		cfg.Shell.Color = config.Mode(o.color)
	}
	if flags.Changed("pointer-size") {
		cfg.Layout.PointerSize = o.pointerSize
	}
	if o.cacheDir != "" {
		cfg.Cache.Dir = o.cacheDir
		cfg.Cache.Enabled = true
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core).Named("tysh"), nil
}

// loadTypes decodes data, going through the snapshot cache when enabled.
// Cache failures are logged and never fail the load.
func loadTypes(ctx context.Context, data []byte, cfg config.Config, log *zap.Logger) (*typedb.Types, error) {
	ptr, err := safecast.Conv[uint64](cfg.Layout.PointerSize)
	if err != nil {
		return nil, errors.Overflow(errors.PhaseConfig, "", cfg.Layout.PointerSize, "uint64")
	}

	var dir, key string
	if cfg.Cache.Enabled {
		dir = cfg.Cache.Dir
		if dir == "" {
			if dir, err = snapshot.DefaultDir(); err != nil {
				log.Warn("snapshot cache disabled", zap.Error(err))
			}
		}
		key = cacheKey(data, ptr)
	}

	if dir != "" {
		db, ok, err := snapshot.Load(dir, key)
		if err != nil {
			log.Warn("snapshot cache read failed", zap.Error(err))
		}
		if ok {
			return db, nil
		}
	}

	db, err := loader.Load(ctx, data, loader.Options{PointerSize: ptr})
	if err != nil {
		return nil, err
	}

	if dir != "" {
		if err := snapshot.Save(dir, key, db); err != nil {
			log.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	return db, nil
}

// cacheKey separates snapshots taken with a pointer width override from
// the ones that used the width found in the binary.
func cacheKey(data []byte, pointerSize uint64) string {
	key := snapshot.Key(data)
	if pointerSize > 0 {
		key = fmt.Sprintf("%s-p%d", key, pointerSize)
	}
	return key
}

func lineTheme(colorOn bool) shell.Theme {
	if colorOn {
		return shell.NewColorTheme()
	}
	return shell.PlainTheme{}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
