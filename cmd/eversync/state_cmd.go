package main

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eversync/eversync/internal/config"
	"github.com/eversync/eversync/internal/sync"
	"github.com/eversync/eversync/internal/utils"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show when each directory was last synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			statePath := cfg.StateFile
			if statePath == "" {
				statePath = config.DefaultStatePath
			}
			if statePath, err = utils.ResolvePath(statePath); err != nil {
				return fmt.Errorf("state file: %w", err)
			}

			state := sync.NewStateStore(statePath, slog.Default())
			scopes := state.Scopes()

			out := cmd.OutOrStdout()
			if len(scopes) == 0 {
				fmt.Fprintf(out, "%s %s\n", gray.Render("no syncs recorded in"), statePath)
				return nil
			}

			keys := make([]string, 0, len(scopes))
			for k := range scopes {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			for _, k := range keys {
				t := scopes[k]
				fmt.Fprintf(out, "%s  %s %s\n",
					cyan.Render(k),
					humanize.Time(t),
					gray.Render("("+t.Local().Format(time.RFC3339)+")"),
				)
			}
			return nil
		},
	}
}
