package main

import (
	"fmt"
	"io"
	"os"

	"cmsadmin/internal/spreadsheet"

	"github.com/spf13/pflag"
)

func runTemplate(args []string) error {
	fs := pflag.NewFlagSet("template", pflag.ContinueOnError)
	variant := fs.String("variant", string(spreadsheet.Standard), "template layout: standard or product")
	out := fs.StringP("output", "o", "", "output file (default: schedule template name, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := spreadsheet.ParseVariant(*variant)
	path := *out
	if path == "" {
		path = "schedule_template.xlsx"
		if v == spreadsheet.ProductLinked {
			path = "product_schedule_template.xlsx"
		}
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := spreadsheet.Export(w, v); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(os.Stderr, "wrote %s template to %s\n", v, path)
	}
	return nil
}
