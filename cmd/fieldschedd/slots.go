package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fieldservice-backend/internal/db"
	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var technicianID, date, address string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable slots for a new appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			loc, err := cfg.Scheduler.Location()
			if err != nil {
				return err
			}
			day, err := time.ParseInLocation(store.DateLayout, date, loc)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			appStore := store.NewGormStore(gormDB)

			scheduler, err := newScheduler(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			tech, err := appStore.GetTechnician(ctx, technicianID)
			if err != nil {
				return fmt.Errorf("technician %s: %w", technicianID, err)
			}
			rows, err := appStore.AppointmentsForDay(ctx, tech.ID, date)
			if err != nil {
				return err
			}
			appts, err := store.ToSlotAppointments(rows)
			if err != nil {
				return err
			}

			result, err := scheduler.ComputeAvailableSlots(ctx, slots.Request{
				NewAddress:   address,
				Appointments: appts,
				Date:         day,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s, %d booked, %d slots\n", tech.Name, date, len(appts), len(result))
			return printSlots(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&technicianID, "technician", "", "technician id")
	cmd.Flags().StringVar(&date, "date", "", "day to schedule, YYYY-MM-DD")
	cmd.Flags().StringVar(&address, "address", "", "address of the new appointment")
	_ = cmd.MarkFlagRequired("technician")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

// printSlots writes one row per slot; the recommended one is starred.
func printSlots(w io.Writer, list []slots.CandidateSlot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTIME\tTRAVEL")
	for _, s := range list {
		mark := ""
		if s.Recommended {
			mark = "*"
		}
		travel := "-"
		if s.Travel != nil {
			travel = fmt.Sprintf("%d min from %s", s.Travel.TravelMinutes, s.Travel.PreviousClientName)
			if s.Travel.PreviousSuburb != "" {
				travel += " (" + s.Travel.PreviousSuburb + ")"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, s.Label, travel)
	}
	return tw.Flush()
}
