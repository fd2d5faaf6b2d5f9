package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/importer"
	"copro-edd-import/internal/sheet"
	"copro-edd-import/internal/storage"

	"github.com/spf13/cobra"
)

type runOptions struct {
	dir           string
	eddPath       string
	lotRefPath    string
	contactsPath  string
	tenantID      string
	coproID       string
	addresses     []string
	cadastralRefs []string
	exportReviews string
	summary       bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile three local workbooks and print the result as JSON",
		Long: `Run parses the lot registry, the owner reference list and the contact
directory, builds units and review cases, and prints the result.

Addresses are given as label:role where role is main or secondary.`,
		Example: `  edd-importctl run --dir ./imports --edd edd.xlsx --lot-ref ref.xlsx --contacts contacts.xlsx \
    --address "12 rue des Lilas:main" --cadastral AB12 --export-reviews reviews.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), storage.NewDirSource(opts.dir), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", ".", "directory the workbook paths are relative to")
	f.StringVar(&opts.eddPath, "edd", "", "lot registry workbook")
	f.StringVar(&opts.lotRefPath, "lot-ref", "", "owner reference workbook")
	f.StringVar(&opts.contactsPath, "contacts", "", "contact directory workbook")
	f.StringVar(&opts.tenantID, "tenant", "local", "tenant id")
	f.StringVar(&opts.coproID, "copro", "local", "property id")
	f.StringArrayVar(&opts.addresses, "address", nil, "property address as label:role (repeatable)")
	f.StringSliceVar(&opts.cadastralRefs, "cadastral", nil, "cadastral parcel references")
	f.StringVar(&opts.exportReviews, "export-reviews", "", "write review cases to this xlsx file")
	f.BoolVar(&opts.summary, "summary", false, "print status, stats and issues only")
	_ = cmd.MarkFlagRequired("edd")
	_ = cmd.MarkFlagRequired("lot-ref")
	_ = cmd.MarkFlagRequired("contacts")
	return cmd
}

func runImport(ctx context.Context, src storage.Source, opts *runOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	addresses, err := parseAddresses(opts.addresses)
	if err != nil {
		return err
	}

	paths := []string{opts.eddPath, opts.lotRefPath, opts.contactsPath}
	sets := make([]sheet.Dataset, len(paths))
	for i, p := range paths {
		data, err := src.Fetch(ctx, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if sets[i], err = sheet.Decode(data); err != nil {
			return fmt.Errorf("decoding %s: %w", p, err)
		}
	}

	res := importer.Reconcile(importer.Input{
		TenantID:      opts.tenantID,
		CoproID:       opts.coproID,
		Lots:          sets[0],
		OwnerRefs:     sets[1],
		Contacts:      sets[2],
		Addresses:     addresses,
		CadastralRefs: opts.cadastralRefs,
	})

	if opts.exportReviews != "" {
		data, err := sheet.ExportReviews(res.Reviews)
		if err != nil {
			return fmt.Errorf("exporting reviews: %w", err)
		}
		if err := os.WriteFile(opts.exportReviews, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", opts.exportReviews, err)
		}
	}

	var v any = res
	if opts.summary {
		v = struct {
			Status domain.JobStatus       `json:"status"`
			Stats  domain.ImportStats     `json:"stats"`
			Issues []domain.DataIssue     `json:"issues"`
			Errors []domain.BlockingError `json:"errors"`
		}{res.Status, res.Stats, res.Issues, res.Errors}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAddresses reads "label:role" values; the role is taken after the last colon.
func parseAddresses(values []string) ([]domain.PropertyAddress, error) {
	out := make([]domain.PropertyAddress, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, ":")
		if i < 0 {
			return nil, fmt.Errorf("address %q: expected label:role", v)
		}
		role := domain.AddressRole(strings.TrimSpace(v[i+1:]))
		if role != domain.AddressMain && role != domain.AddressSecondary {
			return nil, fmt.Errorf("address %q: role must be main or secondary", v)
		}
		out = append(out, domain.PropertyAddress{Label: strings.TrimSpace(v[:i]), Role: role})
	}
	return out, nil
}
