package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fentz26/dosewatch/internal/controlplane"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/scheduler"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon health and job status",
	RunE:  runStatus,
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show the decision journal",
	RunE:  runDecisions,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of dosewatch",
	Run:   runVersion,
}

var decisionsLimit int

func init() {
	rootCmd.AddCommand(statusCmd, decisionsCmd)

	decisionsCmd.Flags().IntVar(&decisionsLimit, "limit", 20, "Number of entries to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	health, err := CheckHealth()
	if health == nil {
		return err
	}
	fmt.Printf("Daemon:  %s (version %s)\n", apiAddr, health.Version)
	fmt.Printf("DB:      %s\n", health.DB)
	fmt.Printf("Time:    %s\n", health.Time)
	if err != nil {
		return err
	}

	var jobs []scheduler.JobStats
	if err := apiGet("/scheduler", &jobs); err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tEVERY\tRUNS\tFAILURES\tNEXT\tLAST ERROR")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", j.Name, j.Interval, j.Runs, j.Failures,
			j.NextRun.Local().Format(time.TimeOnly), truncate(j.LastError, 40))
	}
	w.Flush()
	return nil
}

func runDecisions(cmd *cobra.Command, args []string) error {
	var ds []models.Decision
	if err := apiGet("/decisions?limit="+strconv.Itoa(decisionsLimit), &ds); err != nil {
		return err
	}
	if len(ds) == 0 {
		fmt.Println("No decisions recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tMEDICINE\tDETAILS")
	for _, d := range ds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Timestamp.Local().Format(time.DateTime), d.Action, d.Outcome,
			truncateID(d.MedicineID), truncate(d.Details, 40))
	}
	w.Flush()
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("dosewatch version %s\n", controlplane.Version)
	fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}
