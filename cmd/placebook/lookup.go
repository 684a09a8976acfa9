package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/peebers/placebook/internal/domain"
)

type lookupOutput struct {
	Place *domain.PlaceDetails `json:"place"`
	Photo *photoSummary        `json:"photo"`
}

type photoSummary struct {
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
}

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <poi-ref>",
		Short: "Resolve one point of interest and print its annotation",
		Long: `Resolve a point of interest reference to its place details and photo,
the same way a map tap does, and print the result as JSON. The photo is
reported by size only.

Examples:
  placebook lookup ChIJN1t_tDeuEmsRUsoyG83frY4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline()
			if err != nil {
				return err
			}

			annotation, err := p.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := lookupOutput{Place: annotation.Place}
			if ph := annotation.Photo; ph != nil {
				out.Photo = &photoSummary{MimeType: ph.MimeType, Width: ph.Width, Height: ph.Height, Bytes: len(ph.Data)}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
