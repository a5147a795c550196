package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify ENDPOINT",
	Short: "Show repository information as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(args[0], newLogger())
		if err != nil {
			return err
		}
		id, err := client.Identify(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), id)
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats ENDPOINT",
	Short: "List metadata formats, one JSON object per line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(args[0], newLogger())
		if err != nil {
			return err
		}
		identifier, _ := cmd.Flags().GetString("identifier")
		formats, err := client.ListMetadataFormats(cmd.Context(), identifier)
		if err != nil {
			return err
		}
		for _, f := range formats {
			if err := writeJSON(cmd.OutOrStdout(), f); err != nil {
				return err
			}
		}
		return nil
	},
}

var setsCmd = &cobra.Command{
	Use:   "sets ENDPOINT",
	Short: "List sets, one JSON object per line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(args[0], newLogger())
		if err != nil {
			return err
		}
		for batch, err := range client.ListSets(cmd.Context()).Pages() {
			if err != nil {
				return err
			}
			for _, set := range batch {
				if err := writeJSON(cmd.OutOrStdout(), set); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var identifiersCmd = &cobra.Command{
	Use:   "identifiers ENDPOINT",
	Short: "List record headers, one JSON object per line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(args[0], newLogger())
		if err != nil {
			return err
		}
		opts, err := listOptions(cmd)
		if err != nil {
			return err
		}
		h := client.ListIdentifiers(cmd.Context(), opts)
		for h.Next() {
			for _, header := range h.Batch() {
				if err := writeJSON(cmd.OutOrStdout(), header); err != nil {
					return err
				}
			}
		}
		return h.Err()
	},
}

var getCmd = &cobra.Command{
	Use:   "get ENDPOINT IDENTIFIER",
	Short: "Write the metadata of a single record.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(args[0], newLogger())
		if err != nil {
			return err
		}
		prefix, _ := cmd.Flags().GetString("prefix")
		rec, err := client.GetRecord(cmd.Context(), args[1], prefix)
		if err != nil {
			return err
		}
		if rec.Header.Deleted {
			return fmt.Errorf("record %s is deleted (datestamp %s)", rec.Header.Identifier, rec.Header.Datestamp)
		}
		w := cmd.OutOrStdout()
		if _, err := w.Write(rec.Metadata); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n")
		return err
	},
}

func init() {
	formatsCmd.Flags().String("identifier", "", "only formats available for this item")
	getCmd.Flags().String("prefix", "oai_dc", "metadata prefix")
	addListFlags(identifiersCmd)
	rootCmd.AddCommand(identifyCmd, formatsCmd, setsCmd, identifiersCmd, getCmd)
}
