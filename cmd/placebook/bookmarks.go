package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/peebers/placebook/internal/domain"
)

type bookmarkLine struct {
	ID        int64         `json:"id"`
	PlaceID   string        `json:"place_id"`
	Name      string        `json:"name"`
	Address   string        `json:"address,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Location  domain.LatLng `json:"location"`
	Notes     string        `json:"notes,omitempty"`
	HasPhoto  bool          `json:"has_photo"`
	CreatedAt time.Time     `json:"created_at"`
}

func toLines(list []*domain.Bookmark) []bookmarkLine {
	lines := make([]bookmarkLine, 0, len(list))
	for _, b := range list {
		lines = append(lines, bookmarkLine{
			ID:        b.ID,
			PlaceID:   b.PlaceID,
			Name:      b.Name,
			Address:   b.Address,
			Phone:     b.Phone,
			Location:  b.Location,
			Notes:     b.Notes,
			HasPhoto:  b.PhotoKey != "",
			CreatedAt: b.CreatedAt,
		})
	}
	return lines
}

func newBookmarksCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"ls"},
		Short:   "Print the bookmark collection",
		Long: `Print every bookmark as a JSON array. With --watch, print the whole
collection again after every change until interrupted.

Examples:
  placebook bookmarks
  placebook bookmarks --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeDB, err := a.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			enc := json.NewEncoder(cmd.OutOrStdout())

			if !watch {
				list, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(toLines(list))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sub := repo.AllBookmarks(ctx)
			defer sub.Cancel()
			for list := range sub.Updates() {
				if err := enc.Encode(toLines(list)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep printing the collection on every change")
	return cmd
}
