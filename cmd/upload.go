package cmd

import (
	"fmt"
	"os"
	"time"

	"lite2flake/internal/artifact"
	"lite2flake/internal/engine"
	"lite2flake/internal/warehouse"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Create Snowflake tables and load exported CSV files",
	Long: `Creates every table found in the DDL artifacts unless it already exists,
then loads each CSV file into its table. Tables that already hold rows are
skipped, so the command can be re-run safely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := Logger
		ctx := cmd.Context()

		cfg, err := GetWarehouseConfig()
		if err != nil {
			return err
		}
		overrides, err := GetOverrides()
		if err != nil {
			return err
		}
		log.Info("Loaded schema overrides", zap.Int("count", overrides.Len()))

		csvDir, sqlDir := artifactDirs()
		store := artifact.New(csvDir, sqlDir)

		db, err := warehouse.Connect(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		session := warehouse.NewSession(db, cfg.Database, cfg.Schema, log)
		applier := warehouse.NewApplier(session, viper.GetDuration("upload.retry_pause"), log)
		gate := warehouse.NewGate(session, viper.GetBool("upload.strict_gate"), log)
		orch := engine.NewOrchestrator(store, session, applier, gate, overrides, log)

		dbs, err := orch.Databases()
		if err != nil {
			return err
		}
		total := 0
		for _, name := range dbs {
			tables, err := store.Tables(name)
			if err == nil {
				total += len(tables)
			}
		}
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(max(total, 1)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Uploading: "
		})
		orch.OnTable = func(string, string) { bar.Incr() }

		summary, err := orch.Run(ctx)
		uiprogress.Stop()
		if err != nil {
			return err
		}

		fmt.Println("\n📊 Summary Report:")
		engine.RenderSummary(os.Stdout, summary)
		log.Info("Upload done", zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().Bool("strict-gate", false, "fail a table when its row count cannot be read, instead of loading it")
	uploadCmd.Flags().Duration("retry-pause", time.Second, "pause between table creation attempts")
	viper.BindPFlag("upload.strict_gate", uploadCmd.Flags().Lookup("strict-gate"))
	viper.BindPFlag("upload.retry_pause", uploadCmd.Flags().Lookup("retry-pause"))
}
