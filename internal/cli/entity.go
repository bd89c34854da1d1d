package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leoashcraft/County-Connect-sub009/internal/entity"
)

func (a *app) newGetCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Get a record by ID",
		Example: `  countyctl get Restaurant 01938f9e-7c1a-7b4e-9f3a-2d5c8e1b6a40
  countyctl get Event 01938f9e-... --fields title,venue.city`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.entities.FindByID(cmd.Context(), args[0], args[1])
			if err != nil {
				return storeError(fmt.Errorf("get: %w", err))
			}
			if r == nil {
				return fmt.Errorf("%s %q not found", args[0], args[1])
			}
			out, err := entity.Project(r, fields)
			if err != nil {
				return storeError(err)
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to output (dotted paths allowed)")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List records of a type",
		Example: `  countyctl list Restaurant
  countyctl list Restaurant --sort name --limit 20 --skip 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.entities.List(cmd.Context(), args[0], lf.options())
			if err != nil {
				return storeError(fmt.Errorf("list: %w", err))
			}
			return printRecords(cmd, recs, lf.fields)
		},
	}
	lf.register(cmd)
	return cmd
}

func (a *app) newFilterCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "filter <type> <key=value>...",
		Short: "List records whose fields equal every given value",
		Long: `Filter returns records matching all key=value conditions.

Values are read as JSON when they parse, so open=true matches a boolean and
rank=3 a number; anything else is a string. Dotted keys address nested fields.`,
		Example: `  countyctl filter Restaurant status=active --sort name
  countyctl filter Business address.city=Tyler open=true`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.entities.Filter(cmd.Context(), args[0], query, lf.options())
			if err != nil {
				return storeError(fmt.Errorf("filter: %w", err))
			}
			return printRecords(cmd, recs, lf.fields)
		},
	}
	lf.register(cmd)
	return cmd
}

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <type> [key=value...]",
		Short: "Count records, optionally matching conditions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.entities.Count(cmd.Context(), args[0], query)
			if err != nil {
				return storeError(fmt.Errorf("count: %w", err))
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]int64{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func (a *app) newCreateCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:     "create <type> <json>",
		Short:   "Create a record from a JSON object",
		Example: `  countyctl create Restaurant '{"name":"Alpha","status":"active"}' --owner 42`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseObject(args[1])
			if err != nil {
				return storeError(err)
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.entities.Create(cmd.Context(), args[0], data, ownerFlag(owner))
			if err != nil {
				return storeError(fmt.Errorf("create: %w", err))
			}
			if a.flags.jsonMode {
				return printJSON(cmd, r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s\n", r.EntityType, r.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning user id")
	return cmd
}

func (a *app) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <type> <id> <json>",
		Short: "Shallow-merge a JSON object into a record",
		Long: `Update overwrites the given top-level fields and keeps all others.
id, createdDate, updatedDate and createdBy cannot be changed.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseObject(args[2])
			if err != nil {
				return storeError(err)
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.entities.Update(cmd.Context(), args[0], args[1], patch)
			if err != nil {
				return storeError(fmt.Errorf("update: %w", err))
			}
			if r == nil {
				return fmt.Errorf("%s %q not found", args[0], args[1])
			}
			if a.flags.jsonMode {
				return printJSON(cmd, r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", r.EntityType, r.ID)
			return nil
		},
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Remove a record by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.entities.Delete(cmd.Context(), args[0], args[1])
			if err != nil {
				return storeError(fmt.Errorf("delete: %w", err))
			}
			if !removed {
				return fmt.Errorf("%s %q not found", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func (a *app) newDeleteManyCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "delete-many <type> [key=value...]",
		Short: "Remove every record matching the conditions",
		Long: `Delete-many removes all records of the type matching every key=value
condition. Without conditions it refuses to run unless --all is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			if len(query) == 0 && !all {
				return fmt.Errorf("delete-many without conditions removes every %s; pass --all to confirm", args[0])
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.entities.DeleteMany(cmd.Context(), args[0], query)
			if err != nil {
				return storeError(fmt.Errorf("delete-many: %w", err))
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]int64{"removed": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "allow removing every record of the type")
	return cmd
}

func (a *app) newBulkCreateCmd() *cobra.Command {
	var (
		owner  string
		atomic bool
	)
	cmd := &cobra.Command{
		Use:   "bulk-create <type> <file|->",
		Short: "Create records from a JSON array of objects",
		Long: `Bulk-create reads a JSON array of objects from a file or stdin and creates
one record per element. By default elements are created one by one and those
before a failure stay persisted; --atomic creates all or none.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[1])
			if err != nil {
				return err
			}
			defer in.Close()

			var items []map[string]any
			if err := json.NewDecoder(in).Decode(&items); err != nil {
				return fmt.Errorf("bulk-create: expected a JSON array of objects: %w", err)
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			create := s.entities.BulkCreate
			if atomic {
				create = s.entities.BulkCreateAtomic
			}
			recs, err := create(cmd.Context(), args[0], items, ownerFlag(owner))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "created %d of %d\n", len(recs), len(items))
				return storeError(fmt.Errorf("bulk-create: %w", err))
			}
			if a.flags.jsonMode {
				return printJSON(cmd, recs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d %s\n", len(recs), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning user id")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "create all records in one transaction")
	return cmd
}
