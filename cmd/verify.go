package cmd

import (
	"fmt"
	"os"

	"lite2flake/internal/engine"
	"lite2flake/internal/warehouse"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "List the tables of the target schema with their row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetWarehouseConfig()
		if err != nil {
			return err
		}
		db, err := warehouse.Connect(cfg, Logger)
		if err != nil {
			return err
		}
		defer db.Close()

		session := warehouse.NewSession(db, cfg.Database, cfg.Schema, Logger)
		stats, err := session.TableStats(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Printf("No tables found in %s.%s\n", cfg.Database, cfg.Schema)
			return nil
		}

		fmt.Printf("🔍 Tables in %s.%s:\n", cfg.Database, cfg.Schema)
		engine.RenderTableStats(os.Stdout, stats)

		limit := viper.GetInt("verify.sample")
		if limit <= 0 {
			return nil
		}
		for _, st := range stats {
			frame, err := session.Sample(cmd.Context(), st.Name, limit)
			if err != nil {
				Logger.Warn("Failed to sample table", zap.String("table", st.Name), zap.Error(err))
				continue
			}
			fmt.Printf("\n📋 %s (first %d rows):\n", st.Name, limit)
			engine.RenderSample(os.Stdout, frame)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Int("sample", 0, "also print up to N rows of every table")
	viper.BindPFlag("verify.sample", verifyCmd.Flags().Lookup("sample"))
}
