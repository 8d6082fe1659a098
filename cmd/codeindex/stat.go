package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/codeindex"
	"github.com/hupe1980/codeindex/codec"
	"github.com/hupe1980/codeindex/index"
)

func runStat(_ context.Context, a *app, args []string) error {
	fset, cfgPath := a.flags("stat")
	asJSON := fset.Bool("json", false, "print one JSON object per index")
	codecName := fset.String("codec", codec.Default.Name(), "JSON codec: "+strings.Join(codec.Names(), " or "))
	if err := a.parse(fset, cfgPath, args); err != nil {
		return err
	}
	if fset.NArg() == 0 {
		fmt.Fprintln(a.stderr, "usage: codeindex stat [-json] index.idx...")
		return errUsage
	}
	c, err := codec.Lookup(*codecName)
	if err != nil {
		return err
	}

	indexes, err := codeindex.OpenIndexes(fset.Args(), index.WithoutMmap())
	if err != nil {
		return err
	}
	defer codeindex.CloseIndexes(indexes)

	if *asJSON {
		lw := codec.NewLineWriter(a.stdout, c)
		for _, ix := range indexes {
			if err := lw.Write(ix.Stat()); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDOCUMENTS\tTRIGRAMS\tSIZE\tPATH BYTES\tPOSTING BYTES")
	for _, ix := range indexes {
		s := ix.Stat()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			s.Name, s.NumDocuments, s.NumTrigrams, s.Size, s.PathBytes, s.PostingBytes)
	}
	return tw.Flush()
}
