// Package main provides the entry point for the murmur CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/mossglen/murmur/pkg/pcm"
	"github.com/mossglen/murmur/pkg/player"
	"github.com/mossglen/murmur/ui"
	"github.com/mossglen/murmur/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	sampleRate int
	channels   int
	volume     float64
	watch      bool
	plain      bool
	mock       bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "murmur [PATH]",
		Short: "Play AI-generated narration on the CLI, quietly",
		Long: paragraph(
			fmt.Sprintf("\nPlay %s narration payloads on the CLI.", keyword("AI-generated")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides a readable narration payload. Path is empty when the
// payload comes from stdin.
type source struct {
	reader io.ReadCloser
	Path   string
}

// sourceFromArg parses an argument and creates a readable source for it.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	arg = utils.ExpandPath(arg)
	st, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to stat source: %w", err)
	}

	// a directory: play the first payload found inside it
	if st.IsDir() {
		path, err := findPayload(arg)
		if err != nil {
			return nil, err
		}
		return &source{Path: path}, nil
	}

	p, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{Path: p}, nil
}

// findPayload searches dir for narration payloads (via the
// github.com/muesli/gitcha package) and returns the first one in path
// order.
func findPayload(dir string) (string, error) {
	ch, err := gitcha.FindFiles(dir, utils.PayloadExtensions)
	if err != nil {
		return "", fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var found string
	for res := range ch {
		if found == "" || res.Path < found {
			found = res.Path
		}
	}
	if found == "" {
		return "", fmt.Errorf("no narration payload found in %s", dir)
	}

	log.Debug("payload discovered", "path", found)
	return found, nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	sampleRate = viper.GetInt("sample_rate")
	channels = viper.GetInt("channels")
	volume = viper.GetFloat64("volume")
	plain = viper.GetBool("plain")
	mock = viper.GetBool("mock")
	debug = viper.GetBool("debug")

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	f := pcm.Format{SampleRate: sampleRate, Channels: channels, BitDepth: pcm.BitDepth}
	if err := f.Validate(); err != nil {
		return err
	}
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", volume)
	}

	// We can only run the TUI when stdout is a terminal
	if !term.IsTerminal(int(os.Stdout.Fd())) && !cmd.Flags().Changed("plain") {
		plain = true
	}

	if plain && watch {
		return errors.New("cannot use watch in plain mode")
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		src := &source{reader: os.Stdin}
		defer src.reader.Close() //nolint:errcheck
		return executeSource(src)
	}

	// no argument: search the working directory for a payload
	arg := "."
	if len(args) > 0 {
		arg = args[0]
	}
	return executeArg(arg)
}

func executeArg(arg string) error {
	src, err := sourceFromArg(arg)
	if err != nil {
		return err
	}
	if src.reader != nil {
		defer src.reader.Close() //nolint:errcheck
	}
	return executeSource(src)
}

func executeSource(src *source) error {
	var payload string
	var err error
	if src.Path == "" {
		if watch {
			return errors.New("cannot use watch with stdin")
		}
		payload, err = utils.ReadPayload(src.reader)
	} else {
		payload, err = utils.LoadPayload(src.Path)
	}
	if err != nil {
		return err
	}

	// stdin occupies the terminal's input, so the TUI can't have it
	if plain || src.Path == "" {
		return playPlain(src, payload)
	}
	return runTUI(src, payload)
}

// playPlain plays the payload headlessly: load, play, wait for the
// completion callback, exit. An interrupt stops the session cleanly.
func playPlain(src *source, payload string) error {
	f := pcm.Format{SampleRate: sampleRate, Channels: channels, BitDepth: pcm.BitDepth}

	sinkType := player.SinkAuto
	if mock {
		sinkType = player.SinkMock
	}
	snk, err := player.NewSink(sinkType, f)
	if err != nil {
		return err
	}

	p, err := player.New(payload, player.Config{Format: f, Sink: snk, Volume: volume})
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	if err := p.Load(); err != nil {
		return err
	}

	done := make(chan struct{})
	p.OnEnded(func() { close(done) })

	if err := p.Play(); err != nil {
		return err
	}
	log.Debug("playing",
		"source", src.Path,
		"format", f,
		"duration", p.Buffer().Duration())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	select {
	case <-done:
		return nil
	case <-sig:
		return p.Stop()
	}
}

func runTUI(src *source, payload string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = src.Path
	cfg.Payload = payload
	cfg.SampleRate = sampleRate
	cfg.Channels = channels
	cfg.Volume = volume
	cfg.Watch = watch
	cfg.MockSink = mock

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().IntVar(&sampleRate, "rate", pcm.DefaultSampleRate, "sample rate of the payload in Hz")
	rootCmd.Flags().IntVar(&channels, "channels", pcm.DefaultChannels, "channel count of the payload")
	rootCmd.Flags().Float64Var(&volume, "volume", player.DefaultVolume, "playback volume (0.0 to 1.0)")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "replay when the payload file changes (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&plain, "plain", "p", false, "play without the TUI and exit on completion")
	rootCmd.Flags().BoolVar(&mock, "mock", false, "render to the null audio sink")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "debug logging")

	// Config bindings
	_ = viper.BindPFlag("sample_rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("channels", rootCmd.Flags().Lookup("channels"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("plain", rootCmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("mock", rootCmd.Flags().Lookup("mock"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	viper.SetDefault("sample_rate", pcm.DefaultSampleRate)
	viper.SetDefault("channels", pcm.DefaultChannels)
	viper.SetDefault("volume", player.DefaultVolume)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "murmur")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "murmur")}, dirs...)
	}

	if c := os.Getenv("MURMUR_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("murmur")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("murmur")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "murmur.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
