package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	jobsLimit   int
	jobsTimeout time.Duration
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background ingestion jobs",
	RunE:  runJobsList,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the state of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

var jobsWaitCmd = &cobra.Command{
	Use:   "wait [job-id]",
	Short: "Block until a job finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsWait,
}

var jobsRunCmd = &cobra.Command{
	Use:    "run [job-id]",
	Short:  "Run a queued job in this process",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runJobsRun,
}

func init() {
	jobsListCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum number of jobs")
	jobsWaitCmd.Flags().DurationVar(&jobsTimeout, "timeout", 0, "give up after this long (0 = no limit)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsWaitCmd)
	jobsCmd.AddCommand(jobsRunCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	jobs, err := jobService.List(cmd.Context(), jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs found.")
		return nil
	}

	for i := range jobs {
		j := &jobs[i]
		cmd.Printf("%s  %-9s  %-9s  %s  %s\n",
			j.ID, j.State, j.Kind, j.TenantID, j.Target)
	}
	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	job, err := jobService.Status(args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	printJob(cmd, job)
	return nil
}

func runJobsWait(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	ctx := cmd.Context()
	if jobsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, jobsTimeout)
		defer cancel()
	}

	job, err := jobService.Wait(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed waiting for job: %w", err)
	}

	printJob(cmd, job)
	if job.State == domain.JobFailed {
		return fmt.Errorf("job %s failed", job.ID)
	}
	return nil
}

func runJobsRun(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	job, err := jobService.RunQueued(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to run job: %w", err)
	}

	printJob(cmd, job)
	if job.State == domain.JobFailed {
		return fmt.Errorf("job %s failed", job.ID)
	}
	return nil
}

func printJob(cmd *cobra.Command, job domain.Job) {
	cmd.Printf("Job %s\n", job.ID)
	cmd.Printf("  Kind: %s\n", job.Kind)
	cmd.Printf("  Target: %s\n", job.Target)
	cmd.Printf("  Tenant: %s\n", job.TenantID)
	cmd.Printf("  State: %s\n", job.State)
	cmd.Printf("  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	if !job.FinishedAt.IsZero() && !job.StartedAt.IsZero() {
		cmd.Printf("  Duration: %s\n", job.FinishedAt.Sub(job.StartedAt).Round(time.Millisecond))
	}
	if job.Err != nil {
		cmd.Printf("  Error: %v\n", job.Err)
	}
	if job.Report != nil {
		cmd.Printf("  Files: %d, chunks: %d, failures: %d\n",
			len(job.Report.Files), job.Report.Chunks(), len(job.Report.Failures))
		for _, f := range job.Report.Failures {
			cmd.Printf("    %s: %v\n", f.Path, f.Err)
		}
	}
}
