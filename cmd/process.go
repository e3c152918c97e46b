package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/survey-scan/internal/pipeline"
	"github.com/ziadkadry99/survey-scan/internal/progress"
	"github.com/ziadkadry99/survey-scan/internal/transcribe"
)

var (
	processEntryID     string
	processConcurrency int
)

var processCmd = &cobra.Command{
	Use:   "process <file|glob>...",
	Short: "Process survey photos or recordings and submit the answers",
	Long: `Runs the full pipeline on each file: QR scan (photos), template fetch,
AI answer extraction, reconciliation, and submission. Accepts plain
paths and doublestar globs like scans/**/*.jpg. Audio files require
--entrega-id because recordings carry no QR code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processEntryID, "entrega-id", "", "delivery id to use instead of scanning for a QR code")
	processCmd.Flags().IntVar(&processConcurrency, "concurrency", 4, "max files processed in parallel")
	rootCmd.AddCommand(processCmd)
}

// fileResult pairs one input file with its pipeline outcome.
type fileResult struct {
	path string
	res  *pipeline.Result
	err  error
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files matched.")
		return nil
	}

	log := cliLogger()
	runner, _, _, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}

	// Audio files cannot be matched to an entry without an explicit id.
	for _, f := range files {
		if isAudio(f) && processEntryID == "" {
			return fmt.Errorf("%s: audio files require --entrega-id", f)
		}
	}

	reporter := progress.NewReporter()
	reporter.Start(len(files))

	results := make([]fileResult, len(files))
	var done atomic.Int64
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	if processConcurrency > 0 {
		g.SetLimit(processConcurrency)
	}

	for i, path := range files {
		g.Go(func() error {
			res, err := processFile(ctx, runner, path)
			mu.Lock()
			results[i] = fileResult{path: path, res: res, err: err}
			mu.Unlock()
			reporter.Update(int(done.Add(1)), filepath.Base(path))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		reporter.Finish()
		return err
	}
	reporter.Finish()

	return printResults(results)
}

// processFile dispatches one file to the image or audio pipeline.
func processFile(ctx context.Context, runner *pipeline.Runner, path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	if isAudio(path) {
		return runner.ProcessAudio(ctx, processEntryID, data, filepath.Base(path)), nil
	}

	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return nil, fmt.Errorf("unsupported file type %s", mime)
	}
	if processEntryID != "" {
		return runner.ProcessImageWithEntryID(ctx, processEntryID, data, mime), nil
	}
	return runner.ProcessImage(ctx, data, mime), nil
}

// expandGlobs resolves each argument to concrete paths, treating
// arguments with glob metacharacters as doublestar patterns.
func expandGlobs(args []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("stat %s: %w", arg, err)
			}
			if !seen[arg] {
				seen[arg] = true
				files = append(files, arg)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	return files, nil
}

func isAudio(path string) bool {
	return transcribe.SupportedFormat(filepath.Base(path))
}

// printResults writes the per-file outcome table and returns an error
// if any file failed, so the exit code reflects the batch.
func printResults(results []fileResult) error {
	var failed int

	fmt.Println()
	for _, fr := range results {
		switch {
		case fr.err != nil:
			failed++
			fmt.Printf("  FAIL  %s: %v\n", fr.path, fr.err)
		case !fr.res.Success:
			failed++
			reason := fr.res.Err
			if reason == "" {
				reason = "failed"
			}
			fmt.Printf("  FAIL  %s: %s (stage %s)\n", fr.path, reason, fr.res.Step)
		default:
			fmt.Printf("  OK    %s: entrega %s, %d answers submitted\n",
				fr.path, fr.res.EntryID, len(fr.res.ResponsesSent))
		}
	}

	fmt.Printf("\n%d processed, %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
