package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/config"
	"cmsadmin/internal/spreadsheet"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type importSummary struct {
	File       string                 `json:"file"`
	Variant    spreadsheet.Variant    `json:"variant"`
	Rows       int                    `json:"rows"`
	Mismatches []spreadsheet.Mismatch `json:"mismatches,omitempty"`
	Submitted  bool                   `json:"submitted"`
}

func runImport(args []string) error {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	config.Flags(fs)
	variant := fs.String("variant", string(spreadsheet.Standard), "template layout: standard or product")
	submit := fs.Bool("submit", false, "create the parsed schedules on the backend")
	product := fs.String("product", "", "product id the schedules belong to (required with --submit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: cms-admin import [flags] <file.xlsx>")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	v := spreadsheet.ParseVariant(*variant)
	rep, err := spreadsheet.Parse(f, v)
	if err != nil {
		return err
	}

	summary := importSummary{
		File:       path,
		Variant:    v,
		Rows:       len(rep.Records),
		Mismatches: rep.Mismatches,
	}

	if *submit {
		if *product == "" {
			return errors.New("--product is required with --submit")
		}
		if len(rep.Records) == 0 {
			return errors.New("workbook has no rows to submit")
		}
		cfg, err := config.Load(fs)
		if err != nil {
			return err
		}
		token, err := apiToken()
		if err != nil {
			return err
		}

		client := backend.New(cfg.BackendURL, zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout+5*time.Second)
		defer cancel()
		ctx = backend.WithToken(ctx, token)
		if err := client.BulkCreateSchedules(ctx, *product, rep.Records); err != nil {
			return fmt.Errorf("failed to create schedules: %w", err)
		}
		summary.Submitted = true
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// apiToken reads the backend token from CMS_API_TOKEN, prompting on a
// terminal when it is not set.
func apiToken() (string, error) {
	if t := os.Getenv("CMS_API_TOKEN"); t != "" {
		return t, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("CMS_API_TOKEN is not set")
	}
	fmt.Fprint(os.Stderr, "API token: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	t := strings.TrimSpace(string(b))
	if t == "" {
		return "", errors.New("empty token")
	}
	return t, nil
}
