package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/wallbounce/pkg/config"
	"github.com/zen-systems/wallbounce/pkg/registry"
)

var backendsAliases bool

func backendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the configured backend roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			aliases, err := config.LoadAliasesWithFallback()
			if err != nil {
				return fmt.Errorf("failed to load model aliases: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}
			reg, err := registry.FromConfig(cfg.WallBounce, adapters, aliases, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return fmt.Errorf("failed to build backend registry: %w", err)
			}
			registered := make(map[string]registry.Descriptor, reg.Len())
			for _, d := range reg.All() {
				registered[d.Key()] = d
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tADAPTER\tMODEL\tTIER\tROLE\tSTATUS")
			for _, b := range cfg.WallBounce.Backends {
				role := "voter"
				if b.SynthesisOnly {
					role = "synthesis"
				}
				for _, r := range cfg.WallBounce.Fallback.Reserve {
					if r == b.Kind {
						role += "+reserve"
					}
				}
				name, model, status := b.DisplayName, aliases.Resolve(b.Model), "no key"
				if d, ok := registered[strings.ToLower(b.Kind)]; ok {
					name, model, status = d.Name(), d.Model, "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", b.Kind, name, b.Adapter, model, b.Tier, role, status)
			}
			w.Flush()

			if backendsAliases {
				fmt.Fprintln(cmd.OutOrStdout())
				names := make([]string, 0, len(aliases.Aliases))
				for name := range aliases.Aliases {
					names = append(names, name)
				}
				sort.Strings(names)

				w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ALIAS\tMODEL")
				for _, name := range names {
					fmt.Fprintf(w, "%s\t%s\n", name, aliases.Aliases[name])
				}
				w.Flush()
			}

			if errs := aliases.ValidateBackends(cfg.WallBounce); len(errs) > 0 {
				msgs := make([]string, len(errs))
				for i, e := range errs {
					msgs[i] = e.Error()
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", strings.Join(msgs, "; "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&backendsAliases, "aliases", false, "also list model aliases")
	return cmd
}
