package cmd

import (
	"fmt"
	"os"
	"time"

	"lite2flake/internal/artifact"
	"lite2flake/internal/dialect"
	"lite2flake/internal/engine"
	"lite2flake/internal/extract"
	"lite2flake/internal/schema"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export SQLite databases to CSV files and Snowflake DDL",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := Logger
		sourceDir := viper.GetString("paths.source")
		csvDir, sqlDir := artifactDirs()

		sources, err := extract.Discover(sourceDir)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return fmt.Errorf("no *.sqlite databases found under %s", sourceDir)
		}

		overrides, err := GetOverrides()
		if err != nil {
			return err
		}
		log.Info("Loaded schema overrides", zap.Int("count", overrides.Len()))
		d, err := dialect.GetDialect("sqlite")
		if err != nil {
			return err
		}

		store := artifact.New(csvDir, sqlDir)
		exp := extract.NewExporter(store, schema.NewTranslator(overrides, log), d, log)

		total := 0
		for _, src := range sources {
			n, err := exp.CountTables(src)
			if err != nil {
				log.Warn("Failed to count tables", zap.String("database", src.Database), zap.Error(err))
				continue
			}
			total += n
		}
		log.Info("Starting export",
			zap.Int("databases", len(sources)), zap.Int("tables", total),
			zap.String("csv_dir", csvDir), zap.String("sql_dir", sqlDir))
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(max(total, 1)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Exporting: "
		})
		exp.OnTable = func(string, string) { bar.Incr() }

		var results []*extract.Result
		for _, src := range sources {
			res, err := exp.Export(src)
			if err != nil {
				log.Error("Failed to export database", zap.String("database", src.Database), zap.Error(err))
				res = &extract.Result{Database: src.Database, Failures: []string{err.Error()}}
			}
			results = append(results, res)
		}
		uiprogress.Stop()

		fmt.Println("\n📊 Export Report:")
		engine.RenderExport(os.Stdout, results)
		log.Info("Export done", zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("source", "dev_databases", "directory searched for *.sqlite files")
	viper.BindPFlag("paths.source", exportCmd.Flags().Lookup("source"))
}
