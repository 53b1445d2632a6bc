package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	detectdupes "github.com/mattkeenan/detectdupes/pkg"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	recursive   bool
	cacheFile   string
	deleteFlag  bool
	interactive bool
	excludes    []string
	hashName    string
	format      string
	outputFile  string
	configFile  string
	verbose     int
	debugFlags  string
	quiet       bool
	noProgress  bool
	noColor     bool
	overrides   []string
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "detectdupes: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "detectdupes [flags] DIR [DIR...]",
		Short: "Find files with identical content and optionally delete the copies",
		Long: `detectdupes finds files with identical content in one or more directories.

Files are grouped by size first; only files that share a size are hashed.
With --cache the computed hashes are kept in a SQLite database, so later
runs don't read unchanged files again. The first file seen with a given
content is kept, every later copy is reported (and deleted with --delete).`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&recursive, "recursive", "r", false, "search directories recursively")
	flags.StringVar(&cacheFile, "cache", "", "hash cache database file")
	flags.BoolVar(&deleteFlag, "delete", false, "delete duplicates (default: list only)")
	flags.BoolVarP(&interactive, "interactive", "i", false, "ask before each deletion")
	flags.StringArrayVar(&excludes, "exclude", nil, "exclude files and directories matching GLOB (multiple allowed)")
	flags.StringVar(&hashName, "hash", detectdupes.DefaultHashAlgorithm, "hash algorithm (md5, sha1, sha256, sha512)")
	flags.StringVar(&format, "format", detectdupes.FormatHuman, "output format (human, json, fdupes)")
	flags.StringVarP(&outputFile, "output", "o", "", "write the report to FILE instead of stdout")
	flags.StringVar(&configFile, "config", "", "configuration file (default: "+detectdupes.DefaultConfigPath()+")")
	flags.CountVarP(&verbose, "verbose", "v", "increase verbosity (repeatable)")
	flags.StringVar(&debugFlags, "debug", "", "comma-separated debug flags (index, cache, scan, store, all)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress and summary")
	flags.BoolVar(&noProgress, "no-progress", false, "don't show the progress spinner")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.StringArrayVar(&overrides, "set", nil, "override a configuration value (key:value)")

	return rootCmd
}

// settings are the effective options after merging config file and flags
type settings struct {
	recursive   bool
	cacheFile   string
	delete      bool
	interactive bool
	excludes    []string
	hashName    string
	hashBuffer  int
	format      string
	color       string
	verbose     int
	debug       string
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	path := configFile
	if path == "" {
		path = detectdupes.DefaultConfigPath()
	}

	cfg, err := detectdupes.LoadConfig(path)
	if err != nil {
		if cmd.Flags().Changed("config") {
			return nil, err
		}
		// an unwritable home directory is no reason to refuse to run
		detectdupes.VerboseLog(1, "Using built-in defaults: %v", err)
		cfg = detectdupes.DefaultConfig()
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}

	all := cfg.GetAllConfig()
	s := &settings{
		recursive:   all.Scan.Recursive,
		cacheFile:   all.Cache.Path,
		delete:      all.Delete.Enabled,
		interactive: all.Delete.Interactive,
		excludes:    all.Scan.Excludes,
		hashName:    all.Hash.Default,
		format:      all.Output.Format,
		color:       all.Output.Color,
		verbose:     all.Verbose.Level,
		debug:       all.Verbose.Debug,
	}

	flags := cmd.Flags()
	if flags.Changed("recursive") {
		s.recursive = recursive
	}
	if flags.Changed("cache") {
		s.cacheFile = cacheFile
	}
	if flags.Changed("delete") {
		s.delete = deleteFlag
	}
	if flags.Changed("interactive") {
		s.interactive = interactive
	}
	if flags.Changed("exclude") {
		s.excludes = append(s.excludes, excludes...)
	}
	if flags.Changed("hash") {
		s.hashName = hashName
	}
	if flags.Changed("format") {
		s.format = format
	}
	if flags.Changed("verbose") {
		s.verbose = verbose
	}
	if flags.Changed("debug") {
		s.debug = debugFlags
	}
	if noColor {
		s.color = "never"
	}
	if s.interactive {
		s.delete = true
	}

	if err := detectdupes.ValidateHashAlgorithm(s.hashName); err != nil {
		return nil, err
	}
	if err := detectdupes.ValidateOutputFormat(s.format); err != nil {
		return nil, err
	}
	if err := detectdupes.ValidateColorMode(s.color); err != nil {
		return nil, err
	}
	if err := detectdupes.ValidateVerboseLevel(s.verbose); err != nil {
		return nil, err
	}
	s.hashBuffer, err = detectdupes.ParseHumanSize(all.Performance.HashBuffer)
	if err != nil {
		return nil, fmt.Errorf("invalid hash buffer: %w", err)
	}

	return s, nil
}

func run(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	detectdupes.ConfigureLogging(s.verbose, s.debug)
	configureColor(s.color)

	out := newConsole(os.Stdout, s.format == detectdupes.FormatHuman && outputFile == "")

	var progress *spinner
	if !quiet && !noProgress && !s.interactive {
		progress = newSpinner(os.Stderr)
	}

	opts := detectdupes.DetectorOptions{
		Roots:      args,
		Recursive:  s.recursive,
		CacheFile:  s.cacheFile,
		Delete:     s.delete,
		Excludes:   s.excludes,
		Algorithm:  s.hashName,
		HashBuffer: s.hashBuffer,
		OnDuplicate: func(match detectdupes.DuplicateMatch) {
			progress.clear()
			out.duplicate(match)
		},
		OnProgress: progress.update,
		OnWarning: func(msg string) {
			progress.clear()
			out.warning(msg)
		},
	}
	if s.interactive {
		opts.ConfirmDelete = confirmDelete
	}

	shutdown := setupSignalHandler()
	result, runErr := detectdupes.NewDetector(afero.NewOsFs(), opts).Run(shutdown)
	progress.finish()
	if result == nil {
		return runErr
	}

	if err := writeReport(result, s.format); err != nil && runErr == nil {
		runErr = err
	}

	if !quiet && result.Stats.FilesChecked > 0 {
		summaryTo := io.Writer(os.Stdout)
		if !out.live {
			summaryTo = os.Stderr
		}
		printSummary(summaryTo, result, s.hashName)
	}

	if result.Interrupted && runErr == nil {
		return fmt.Errorf("interrupted after %d files", result.Stats.FilesChecked)
	}
	return runErr
}

// writeReport writes the grouped report unless it was already printed line by line
func writeReport(result *detectdupes.Result, format string) error {
	if outputFile == "" {
		if format == detectdupes.FormatHuman {
			return nil
		}
		return result.Report.Render(os.Stdout, format)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := result.Report.Render(file, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
