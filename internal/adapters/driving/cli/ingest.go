package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

var (
	ingestTenant  string
	ingestReplace bool
	ingestAsync   bool
	ingestWorkers int
	ingestWatch   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest files into the vector collection",
	Long: `Extracts, chunks, embeds and stores documents for a tenant.

Re-ingesting a file adds new records unless --replace is given, which first
removes the records previously stored for that file and tenant.`,
}

var ingestFileCmd = &cobra.Command{
	Use:   "file [path]",
	Short: "Ingest a single file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestFile,
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Ingest every supported file below a directory",
	Long: `Ingests every supported file below a directory.

A file that fails is reported and skipped; the remaining files are still
ingested. With --watch the directory is then watched and changed files are
re-ingested until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestDir,
}

func init() {
	for _, c := range []*cobra.Command{ingestFileCmd, ingestDirCmd} {
		c.Flags().StringVarP(&ingestTenant, "tenant", "t", domain.DefaultTenant, "tenant the records belong to")
		c.Flags().BoolVar(&ingestReplace, "replace", false, "replace records previously stored for each file")
		c.Flags().BoolVar(&ingestAsync, "async", false, "submit as a background job and print its id")
	}
	ingestDirCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "files ingested concurrently (0 = configured default)")
	ingestDirCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the directory for changes")

	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestDirCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	path := args[0]

	if ingestAsync {
		return submitJob(cmd, domain.JobKindFile, path, domain.JobOptions{Replace: replaceFlag(cmd)})
	}
	if orchestrator == nil {
		return errors.New("ingestion service not configured")
	}

	o := orchestrator.With(replaceOption(cmd)...)
	res := o.IngestFile(cmd.Context(), path, ingestTenant)
	if res.Err != nil {
		return fmt.Errorf("ingest failed: %w", res.Err)
	}

	printFileResult(cmd, res)
	return nil
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	root := args[0]

	if ingestAsync {
		if ingestWatch {
			return errors.New("--watch cannot be combined with --async")
		}
		return submitJob(cmd, domain.JobKindDirectory, root, domain.JobOptions{
			Replace: replaceFlag(cmd),
			Workers: ingestWorkers,
		})
	}
	if orchestrator == nil {
		return errors.New("ingestion service not configured")
	}

	opts := append(replaceOption(cmd), services.WithWorkers(ingestWorkers))
	if ingestWatch {
		opts = append(opts, services.WithReplaceExisting(true))
	}
	progress := newIngestProgress(cmd.OutOrStdout())
	if progress != nil {
		opts = append(opts, services.WithProgress(progress.update))
	}
	o := orchestrator.With(opts...)

	cmd.Printf("Ingesting %s for tenant %s...\n", root, domain.TenantOrDefault(ingestTenant))
	report, err := o.IngestDirectory(cmd.Context(), root, ingestTenant)
	progress.finish()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report)

	if ingestWatch {
		return watchDirectory(cmd, o, root)
	}
	if !report.Succeeded {
		return fmt.Errorf("%d file(s) failed to ingest", len(report.Failures))
	}
	return nil
}

// replaceOption overrides the configured replace mode only when --replace is given.
func replaceOption(cmd *cobra.Command) []services.IngestOption {
	if r := replaceFlag(cmd); r != nil {
		return []services.IngestOption{services.WithReplaceExisting(*r)}
	}
	return nil
}

func replaceFlag(cmd *cobra.Command) *bool {
	if !cmd.Flags().Changed("replace") {
		return nil
	}
	r := ingestReplace
	return &r
}

func watchDirectory(cmd *cobra.Command, o *services.IngestionOrchestrator, root string) error {
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", root)

	watcher := services.NewWatcher(o, func(ev services.WatchEvent) {
		switch {
		case ev.Err != nil:
			cmd.Printf("  ! %s %s: %v\n", ev.Change.Type, ev.Change.Path, ev.Err)
		case ev.Change.Type == domain.ChangeDeleted:
			cmd.Printf("  - %s (%d records removed)\n", ev.Change.Path, ev.Removed)
		default:
			cmd.Printf("  + %s (%d chunks)\n", ev.Change.Path, ev.Result.Chunks)
		}
	})
	if err := watcher.Run(cmd.Context(), root, ingestTenant); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// submitJob queues the job and hands it to a detached worker process, so the
// job outlives this command.
func submitJob(cmd *cobra.Command, kind domain.JobKind, target string, opts domain.JobOptions) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	id, err := jobService.Enqueue(cmd.Context(), domain.JobRequest{
		Kind:     kind,
		Target:   target,
		TenantID: ingestTenant,
		Options:  opts,
	})
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	if err := startJobProcess(id); err != nil {
		return fmt.Errorf("job %s queued but no worker started (run 'sercha-rag jobs run %s'): %w", id, id, err)
	}

	cmd.Printf("Submitted job %s\n", id)
	cmd.Printf("Run 'sercha-rag jobs wait %s' to follow it.\n", id)
	return nil
}

func printFileResult(cmd *cobra.Command, res domain.FileResult) {
	cmd.Printf("Ingested %s: %d chunks", res.Path, res.Chunks)
	if res.Degraded > 0 {
		cmd.Printf(" (%d without embeddings)", res.Degraded)
	}
	cmd.Println()
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	ok := len(report.Files) - len(report.Failures)
	if ok < 0 {
		ok = 0
	}
	cmd.Printf("Ingested %d file(s), %d chunks.\n", ok, report.Chunks())

	if len(report.Failures) == 0 {
		return
	}
	cmd.Printf("%d file(s) failed:\n", len(report.Failures))
	for _, f := range report.Failures {
		cmd.Printf("  %s: %v\n", f.Path, f.Err)
	}
}

// ingestProgress renders directory progress when stdout is a terminal.
type ingestProgress struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func newIngestProgress(out io.Writer) *ingestProgress {
	if out != os.Stdout || !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return &ingestProgress{out: out}
}

func (p *ingestProgress) update(done, total int, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *ingestProgress) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
