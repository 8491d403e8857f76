package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"lite2flake/internal/dialect"
	"lite2flake/internal/engine"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a demo SQLite database filled with random data",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := Logger
		out := viper.GetString("seed.out")
		rows := viper.GetInt("seed.rows")
		if rows <= 0 {
			return fmt.Errorf("seed.rows must be positive, got %d", rows)
		}

		d, err := dialect.GetDialect("sqlite")
		if err != nil {
			return err
		}
		path := filepath.Join(out, "financial", "financial.sqlite")
		log.Info("Seeding demo database", zap.String("path", path), zap.Int("rows", rows))
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(rows * len(engine.FinancialCorpus)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Seeding: "
		})

		results, err := engine.NewSeeder(d, log).Seed(cmd.Context(), path, engine.FinancialCorpus, rows, func() {
			bar.Incr()
		})
		uiprogress.Stop()
		if err != nil {
			return err
		}

		fmt.Println("\n📊 Seed Report:")
		for i, r := range results {
			icon := "✓"
			if r.Actual < r.Target {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows (Target: %d)\n",
				icon, i+1, len(results), r.Table, r.Actual, r.Target)
		}
		log.Info("Seed done", zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("out", "dev_databases", "directory the demo database is written under")
	seedCmd.Flags().Int("rows", 50, "rows per table")
	viper.BindPFlag("seed.out", seedCmd.Flags().Lookup("out"))
	viper.BindPFlag("seed.rows", seedCmd.Flags().Lookup("rows"))
}
