package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/miku/oaiharvest"
	"github.com/spf13/cobra"
)

// DefaultEarliestDate is used, if the repository does not supply one.
var DefaultEarliestDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

var recordsCmd = &cobra.Command{
	Use:   "records ENDPOINT",
	Short: "Write record metadata XML.",
	Long: `Harvest records and write their metadata XML verbatim. With --window, the
harvest is split into weekly or monthly date ranges, which keeps single
harvests short on large repositories.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecords,
}

func init() {
	addListFlags(recordsCmd)
	f := recordsCmd.Flags()
	f.String("window", "none", "split the harvest into windows: none, weekly, monthly")
	f.String("root", "", "name of artificial root element tag to use")
	f.StringP("output", "o", "", "output file, gzip compressed if it ends in .gz")
	rootCmd.AddCommand(recordsCmd)
}

func addListFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("prefix", "oai_dc", "metadata prefix")
	f.String("set", "", "set spec")
	f.String("from", "", "lower datestamp bound")
	f.String("until", "", "upper datestamp bound")
}

func listOptions(cmd *cobra.Command) (oaiharvest.ListOptions, error) {
	var opts oaiharvest.ListOptions
	var err error
	f := cmd.Flags()
	if opts.MetadataPrefix, err = f.GetString("prefix"); err != nil {
		return opts, err
	}
	if opts.Set, err = f.GetString("set"); err != nil {
		return opts, err
	}
	if opts.From, err = f.GetString("from"); err != nil {
		return opts, err
	}
	if opts.Until, err = f.GetString("until"); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseDatestamp reads the day part of a datestamp.
func parseDatestamp(s string) (time.Time, error) {
	if len(s) < len(oaiharvest.DateLayout) {
		return time.Time{}, fmt.Errorf("invalid datestamp %q", s)
	}
	return time.Parse(oaiharvest.DateLayout, s[:len(oaiharvest.DateLayout)])
}

// earliest asks the repository for its earliest datestamp.
func earliest(ctx context.Context, client *oaiharvest.Client) time.Time {
	id, err := client.Identify(ctx)
	if err != nil {
		return DefaultEarliestDate
	}
	t, err := parseDatestamp(id.EarliestDatestamp)
	if err != nil {
		return DefaultEarliestDate
	}
	return t
}

// windowed returns the list options to harvest one after another.
func windowed(ctx context.Context, client *oaiharvest.Client, opts oaiharvest.ListOptions, interval string) ([]oaiharvest.ListOptions, error) {
	if interval == "" || interval == "none" {
		return []oaiharvest.ListOptions{opts}, nil
	}
	var w oaiharvest.Window
	var err error
	if opts.From == "" {
		w.From = earliest(ctx, client)
	} else if w.From, err = parseDatestamp(opts.From); err != nil {
		return nil, err
	}
	if opts.Until == "" {
		w.Until = time.Now().UTC()
	} else if w.Until, err = parseDatestamp(opts.Until); err != nil {
		return nil, err
	}
	windows, err := w.Split(interval)
	if err != nil {
		return nil, err
	}
	return opts.Split(windows), nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	log := newLogger()
	client, err := newClient(args[0], log)
	if err != nil {
		return err
	}
	opts, err := listOptions(cmd)
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetString("window")
	root, _ := cmd.Flags().GetString("root")
	output, _ := cmd.Flags().GetString("output")

	ctx := cmd.Context()
	parts, err := windowed(ctx, client, opts, interval)
	if err != nil {
		return err
	}
	w, err := openOutput(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := startDocument(w, root); err != nil {
		w.Close()
		return err
	}
	var total int
	for _, part := range parts {
		n, err := writeRecords(w, client.ListRecords(ctx, part))
		total += n
		if err != nil {
			w.Close()
			return fmt.Errorf("harvest %s to %s: %w", part.From, part.Until, err)
		}
	}
	if err := endDocument(w, root); err != nil {
		w.Close()
		return err
	}
	log.Info().Int("records", total).Int("windows", len(parts)).Msg("done")
	return w.Close()
}

// writeRecords writes the metadata of each non-deleted record and returns
// the number of records written.
func writeRecords(w io.Writer, h *oaiharvest.Harvest[oaiharvest.Record]) (int, error) {
	var n int
	for h.Next() {
		for _, rec := range h.Batch() {
			if rec.Header.Deleted || len(rec.Metadata) == 0 {
				continue
			}
			if _, err := w.Write(rec.Metadata); err != nil {
				return n, err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, h.Err()
}
