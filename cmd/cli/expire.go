package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/quote-service/config"
	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/database"
	"github.com/kosarica/quote-service/internal/notify"
	"github.com/kosarica/quote-service/internal/submission"
	"github.com/kosarica/quote-service/internal/taskqueue"
	"github.com/kosarica/quote-service/internal/workers"
)

var expireEnqueue bool

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire open submissions past their expiry time",
	Long: `Move every open submission whose expiry timestamp has passed to expired.
With --enqueue the sweep is scheduled on the task queue for a worker instead.`,
	RunE: runExpire,
}

func init() {
	rootCmd.AddCommand(expireCmd)
	expireCmd.Flags().BoolVar(&expireEnqueue, "enqueue", false, "Schedule the sweep as a task instead of running it")
}

func runExpire(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if expireEnqueue {
		id, err := taskqueue.New(database.Pool()).ScheduleTask(ctx, taskqueue.ScheduleTaskInput{
			TaskType: taskqueue.TaskTypeExpireSubmissions,
			Payload:  workers.ExpireRequest{RequestedBy: "cli"},
		})
		if err != nil {
			return fmt.Errorf("failed to schedule expiry: %w", err)
		}
		logger.Info().Str("task_id", id).Msg("Expiry scheduled")
		return nil
	}

	n, err := newPipeline().ExpireDue(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("expired", n).Msg("Expiry sweep finished")
	return nil
}

// newPipeline builds a pipeline over the Postgres catalog and submission
// store. CLI runs never notify the CRM.
func newPipeline() *submission.Pipeline {
	pool := database.Pool()
	cacheCfg := catalog.DefaultCacheConfig()
	subCfg := submission.DefaultConfig()
	if cfg != nil {
		cacheCfg = &cfg.Quoting.Cache
		subCfg.SubmissionTTL = cfg.Quoting.SubmissionTTL
	}
	var src catalog.Source = catalog.NewCache(database.NewCatalogRepository(pool), cacheCfg)
	if cfg != nil && cfg.Quoting.CatalogSource == config.CatalogSourceFile {
		if mem, err := catalog.LoadFile(cfg.Quoting.CatalogFile); err == nil {
			src = mem
		} else {
			logger.Warn().Err(err).Msg("Falling back to the Postgres catalog")
		}
	}
	return submission.NewPipeline(src, database.NewSubmissionStore(pool), notify.Nop{}, subCfg)
}
