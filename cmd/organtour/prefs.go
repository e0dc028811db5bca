package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"organtour/pkg/config"
	"organtour/pkg/store"
)

// newPrefsCmd inspects and edits persisted preferences without starting the exhibit.
func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or write persisted preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print the effective value of one or all preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := append([]string(nil), config.Keys...)
			sort.Strings(keys)
			if len(args) == 1 {
				if !config.IsKnownKey(args[0]) {
					return fmt.Errorf("unknown preference %q (known: %v)", args[0], keys)
				}
				keys = args
			}

			cfg, st, err := openPrefs()
			if err != nil {
				return err
			}
			defer st.Close()

			p := config.NewProvider(cfg, st)
			for _, k := range keys {
				v, _ := p.Value(cmd.Context(), k)
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%d\n", k, v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsKnownKey(key) {
				return fmt.Errorf("unknown preference %q", key)
			}
			val, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("preference %s needs an integer value: %w", key, err)
			}

			cfg, st, err := openPrefs()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := store.NewPreferences(st).SetInt(cmd.Context(), key, val); err != nil {
				return fmt.Errorf("failed to save %s: %w", key, err)
			}
			eff, _ := config.NewProvider(cfg, st).Value(cmd.Context(), key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%d\n", key, eff)
			return nil
		},
	})

	return cmd
}

func openPrefs() (*config.Config, store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DB.Ephemeral {
		return nil, nil, fmt.Errorf("db.ephemeral is set, preferences are not persisted")
	}
	st, err := initStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}
