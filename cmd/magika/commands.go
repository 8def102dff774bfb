package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emergingrobotics/go-magika/pkg/config"
	"github.com/emergingrobotics/go-magika/pkg/logging"
	"github.com/emergingrobotics/go-magika/pkg/magika"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
)

// stdinPath names standard input on the command line
const stdinPath = "-"

// errInputsFailed reports that some inputs were printed as errors
var errInputsFailed = errors.New("one or more inputs could not be identified")

type rootFlags struct {
	configPath     string
	modelDir       string
	ortLibrary     string
	recursive      bool
	jsonOutput     bool
	jsonlOutput    bool
	mimeType       bool
	label          bool
	outputScore    bool
	predictionMode string
	noDereference  bool
	batchSize      int
	workers        int
	verbose        bool
}

func newRootCommand(open sessionOpener) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "magika [flags] PATH...",
		Short: "Identify file content types with a deep learning model",
		Long: `magika identifies the content type of files from their bytes.

Use "-" as a path to read from standard input.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return runIdentify(cmd, cfg, flags, args, open)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "TOML configuration file")
	pf.StringVar(&flags.modelDir, "model-dir", "", "model directory (config.min.json, model.onnx)")
	pf.StringVar(&flags.ortLibrary, "ort-library", "", "path to the onnxruntime shared library")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging and file sizes")

	f := cmd.Flags()
	f.BoolVarP(&flags.recursive, "recursive", "r", false, "identify files inside directories")
	f.BoolVar(&flags.jsonOutput, "json", false, "print results as a JSON array")
	f.BoolVar(&flags.jsonlOutput, "jsonl", false, "print one JSON object per line")
	f.BoolVarP(&flags.mimeType, "mime-type", "i", false, "print the MIME type")
	f.BoolVarP(&flags.label, "label", "l", false, "print the content type label")
	f.BoolVarP(&flags.outputScore, "output-score", "s", false, "print the prediction score")
	f.StringVar(&flags.predictionMode, "prediction-mode", "", "best-guess, medium-confidence, or high-confidence")
	f.BoolVar(&flags.noDereference, "no-dereference", false, "report symlinks instead of following them")
	f.IntVar(&flags.batchSize, "batch-size", 0, "maximum files per model call")
	f.IntVar(&flags.workers, "workers", 0, "concurrent file readers")
	cmd.MarkFlagsMutuallyExclusive("json", "jsonl")
	cmd.MarkFlagsMutuallyExclusive("mime-type", "label")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newLabelsCommand(flags))

	return cmd
}

// config loads the file, overlays flags, and finalizes
func (f *rootFlags) config() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	overlay := &config.Config{
		Model:   config.ModelConfig{Dir: f.modelDir},
		Runtime: config.RuntimeConfig{LibraryPath: f.ortLibrary},
		Classify: config.ClassifyConfig{
			PredictionMode: f.predictionMode,
			BatchSize:      f.batchSize,
			Workers:        f.workers,
		},
	}
	if f.noDereference {
		follow := false
		overlay.Classify.Dereference = &follow
	}
	if f.verbose {
		overlay.Logging.Level = logging.LevelDebug
	}
	cfg.Merge(overlay)

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runIdentify(cmd *cobra.Command, cfg *config.Config, flags *rootFlags, args []string, open sessionOpener) error {
	logger := logging.New(&cfg.Logging, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	s, err := open(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	paths, err := expandPaths(args, flags.recursive)
	if err != nil {
		return err
	}

	var files []string
	for _, p := range paths {
		if p != stdinPath {
			files = append(files, p)
		}
	}

	identified, err := s.IdentifyPaths(ctx, files)
	if err != nil {
		return err
	}

	results := make([]magika.Result, 0, len(paths))
	for _, p := range paths {
		if p == stdinPath {
			r, err := identifyStdin(ctx, s, cmd.InOrStdin(), cfg.Classify.MaxStdinSizeBytes())
			if err != nil {
				return err
			}
			results = append(results, r)
			continue
		}
		results = append(results, identified[0])
		identified = identified[1:]
	}

	p := newPrinter(cmd.OutOrStdout(), flags)
	if err := p.print(results); err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			return errInputsFailed
		}
	}
	return nil
}

// identifyStdin classifies buffered stdin. Per-input failures land in the result.
func identifyStdin(ctx context.Context, s *magika.Session, r io.Reader, limit int64) (magika.Result, error) {
	result := magika.Result{Path: stdinPath}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		result.Err = magikaerr.IO(err)
		return result, nil
	}
	if int64(len(data)) > limit {
		result.Err = magikaerr.IO(fmt.Errorf("stdin exceeds max_stdin_size of %d bytes", limit))
		return result, nil
	}

	result.Prediction, err = s.IdentifyBytes(ctx, data)
	if err != nil {
		return magika.Result{}, err
	}
	return result, nil
}

// expandPaths walks directories when recursive is set. Unreadable
// entries stay in the list so they surface as per-path errors.
func expandPaths(args []string, recursive bool) ([]string, error) {
	if !recursive {
		return args, nil
	}

	var paths []string
	for _, arg := range args {
		if arg == stdinPath {
			paths = append(paths, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				paths = append(paths, path)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, magikaerr.IO(err)
		}
	}
	return paths, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "magika version %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Go version: %s\n", GoVersion)
		},
	}
}

func newLabelsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List the content types the model can output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			m, err := model.Load(cfg.Model.Dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tGROUP\tMIME TYPE\tDESCRIPTION")
			for _, label := range m.Config.TargetLabelsSpace {
				ct := m.ContentType(label)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ct.Label, ct.Group, ct.MimeType, ct.Description)
			}
			return w.Flush()
		},
	}
}
