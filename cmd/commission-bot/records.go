package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/execution-hub/commission-bot/internal/application/records"
	"github.com/execution-hub/commission-bot/internal/config"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect submission records in the backup repository",
	}
	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsViewCmd())
	return cmd
}

func recordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withRecords(cmd.Context(), func(ctx context.Context, svc *records.Service) error {
				recs, err := svc.Load(ctx)
				if err != nil {
					return err
				}
				return printRecordTable(cmd.OutOrStdout(), recs, limit)
			})
		},
	}
	cmd.Flags().IntP("limit", "n", 0, "Show only the newest n records (0 for all)")
	return cmd
}

func recordsViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [number]",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("record number must be a positive integer, got %q", args[0])
			}
			return withRecords(cmd.Context(), func(ctx context.Context, svc *records.Service) error {
				rec, err := svc.Get(ctx, n-1)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			})
		},
	}
}

func withRecords(ctx context.Context, fn func(ctx context.Context, svc *records.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	// Keep stdout clean for the table or JSON.
	logger := newLogger(cfg.LogLevel).Output(os.Stderr)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, records.NewService(store, recordOptions(cfg), logger))
}

func printRecordTable(w io.Writer, recs []submission.Record, limit int) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no records")
		return err
	}
	start := 0
	if limit > 0 && len(recs) > limit {
		start = len(recs) - limit
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSUBMITTED\tPROJECT\tUNIT\tSUBMITTER\tCUSTOMER\tTOTAL\tFILES")
	for i := start; i < len(recs); i++ {
		r := recs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			i+1,
			r.SubmittedAt.Format("2006-01-02 15:04"),
			r.Project.Name,
			r.Project.Unit,
			r.SubmitterName,
			r.Customer.Name,
			r.TotalCommission,
			len(r.Files),
		)
	}
	return tw.Flush()
}
