package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"montagereg/internal/store"
)

var runsDataDir string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored registration runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := store.NewFSStore(runsDataDir)
		if err != nil {
			return err
		}
		records, err := runStore.ListRuns()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		sort.Slice(records, func(i, j int) bool {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		})

		fmt.Printf("%-36s  %-20s  %-12s  %s\n", "RUN", "CREATED", "SCORE", "STOP CONDITION")
		for _, record := range records {
			fmt.Printf("%-36s  %-20s  %-12.4g  %s\n",
				record.ID,
				record.CreatedAt.Format("2006-01-02 15:04:05"),
				record.BestScore,
				record.StopCondition,
			)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one stored run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := store.NewFSStore(runsDataDir)
		if err != nil {
			return err
		}
		record, err := runStore.LoadRun(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:            %s\n", record.ID)
		fmt.Printf("Created:        %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Tiles:          %s (%dx%d)\n", record.Settings.TilesDir, record.Settings.Rows, record.Settings.Cols)
		fmt.Printf("Optimizer:      %s (budget %d, restarts %v)\n",
			record.Settings.Optimizer, record.Settings.MaxIterations, record.Settings.Restarts)
		fmt.Printf("Score:          %.6g (initial %.6g)\n", record.BestScore, record.InitialScore)
		fmt.Printf("Evaluations:    %d\n", record.Evaluations)
		fmt.Printf("Stop condition: %s\n", record.StopCondition)
		fmt.Printf("Parameters:     %v\n", record.BestParameters)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := store.NewFSStore(runsDataDir)
		if err != nil {
			return err
		}
		if err := runStore.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", args[0])
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data", "./data", "Directory for run records")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
