package main

import (
	"encoding/json"

	"record-gateway/records"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print a record store file as a JSON array",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := records.ReadFile(file)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "./record.avro", "record store file")
	return cmd
}
