package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

func (a *app) newSettingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write site settings",
	}
	cmd.AddCommand(a.newSettingGetCmd(), a.newSettingSetCmd(), a.newSettingDeleteCmd())
	return cmd
}

func (a *app) newSettingGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			raw, ok, err := s.settings.Get(cmd.Context(), args[0])
			if err != nil {
				return storeError(fmt.Errorf("setting get: %w", err))
			}
			if !ok {
				return fmt.Errorf("setting %q not found", args[0])
			}
			var v any
			if err := types.DecodeJSON(raw, &v); err != nil {
				return sysError(fmt.Errorf("setting %q holds invalid JSON: %w", args[0], err))
			}
			return printJSON(cmd, v)
		},
	}
}

func (a *app) newSettingSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a setting value",
		Long: `Set stores a JSON value under key, replacing any previous value.
A value that is not valid JSON is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any
			if err := types.DecodeJSON([]byte(args[1]), &v); err != nil {
				v = args[1]
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.settings.Set(cmd.Context(), args[0], v); err != nil {
				return storeError(fmt.Errorf("setting set: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}

func (a *app) newSettingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.settings.Delete(cmd.Context(), args[0])
			if err != nil {
				return storeError(fmt.Errorf("setting delete: %w", err))
			}
			if !removed {
				return fmt.Errorf("setting %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted setting %s\n", args[0])
			return nil
		},
	}
}
