package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leoashcraft/County-Connect-sub009/internal/entity"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// parseFilters turns key=value arguments into a filter query. Values are
// decoded as JSON when they parse (true, 3, null, "x"), otherwise taken as
// plain strings.
func parseFilters(args []string) (map[string]any, error) {
	query := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", arg)
		}
		var parsed any
		if err := types.DecodeJSON([]byte(value), &parsed); err != nil {
			parsed = value
		}
		query[key] = parsed
	}
	return query, nil
}

// parseObject decodes a JSON object argument.
func parseObject(arg string) (map[string]any, error) {
	var data map[string]any
	if err := types.DecodeJSON([]byte(arg), &data); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON object: %v", types.ErrInvalidData, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", types.ErrInvalidData)
	}
	return data, nil
}

// openInput returns stdin for "-" and the named file otherwise.
func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printRecords writes records, projected to fields when any are given.
func printRecords(cmd *cobra.Command, recs []*types.Record, fields []string) error {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		p, err := entity.Project(r, fields)
		if err != nil {
			return storeError(err)
		}
		out = append(out, p)
	}
	return printJSON(cmd, out)
}

// ownerFlag returns nil for an empty --owner.
func ownerFlag(owner string) *string {
	if owner == "" {
		return nil
	}
	return &owner
}

// listFlags are the ordering and pagination flags of list and filter.
type listFlags struct {
	sort   string
	limit  int
	skip   int
	fields []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sort, "sort", "", `sort field, "-" prefix for descending (default "-createdDate")`)
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum records to return (0 for all)")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "records to skip")
	cmd.Flags().StringSliceVar(&f.fields, "fields", nil, "fields to output (dotted paths allowed)")
}

func (f *listFlags) options() types.ListOptions {
	return types.ListOptions{Sort: f.sort, Limit: f.limit, Skip: f.skip}
}
