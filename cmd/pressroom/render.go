package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pressroom/pkg/config"
	"pressroom/pkg/datasource"
	"pressroom/pkg/engine"
	"pressroom/pkg/output/csvout"
	"pressroom/pkg/output/htmlout"
	"pressroom/pkg/output/pdf"
	"pressroom/pkg/output/raster"
	"pressroom/pkg/output/xlsx"
	"pressroom/pkg/report"
	"pressroom/pkg/resource"
)

var formats = []string{"pdf", "png", "xlsx", "html", "csv"}

type renderOptions struct {
	*globalOptions
	format    string
	out       string
	data      []string
	endpoint  string
	dpi       float64
	pageBands bool
	progress  bool
	watch     bool
	patterns  []string
}

func newRenderCommand(g *globalOptions) *cobra.Command {
	o := &renderOptions{globalOptions: g}
	cmd := &cobra.Command{
		Use:   "render REPORT",
		Short: "Render a report definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			if !o.watch {
				return o.run(cmd.Context(), cfg, logger, args[0])
			}
			return o.watchAndRun(cmd.Context(), cfg, logger, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", "", "output format: "+strings.Join(formats, ", ")+" (default from config)")
	f.StringVarP(&o.out, "out", "o", "", "output file, or directory for png")
	f.StringArrayVarP(&o.data, "data", "d", nil, "CSV data as query=path, repeatable")
	f.StringVar(&o.endpoint, "endpoint", "", "HTTP data service for queries not given by --data")
	f.Float64Var(&o.dpi, "dpi", 0, "png resolution (default from config)")
	f.BoolVar(&o.pageBands, "page-bands", false, "keep page headers and footers in xlsx and csv")
	f.BoolVar(&o.progress, "progress", true, "show progress when stderr is a terminal")
	f.BoolVarP(&o.watch, "watch", "w", false, "render again when the report or its data changes")
	f.StringSliceVar(&o.patterns, "watch-pattern", []string{"*.{yaml,yml,csv,toml}"}, "file names that trigger a new render")
	return cmd
}

// run renders the report once.
func (o *renderOptions) run(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) error {
	dir := filepath.Dir(path)
	fetcher := resource.NewFetcher(dir)
	eng, err := engine.New(cfg, engine.WithLogger(logger), engine.WithFetcher(fetcher))
	if err != nil {
		return err
	}
	rep, err := eng.LoadReport(path)
	if err != nil {
		return err
	}
	if rep.DataFactory, err = o.dataFactory(fetcher, logger); err != nil {
		return err
	}

	format, out := o.output(cfg, path)
	sink, closeOut, err := o.newSink(eng, rep, format, out)
	if err != nil {
		return err
	}

	p := eng.NewProcessor(rep)
	if o.progress && isTerminal(os.Stderr) {
		bar := newProgressBar(os.Stderr, p.Percentage)
		p.Notifier = bar.notifier()
		defer bar.done()
	}
	runErr := p.Run(ctx, sink)
	if err := closeOut(runErr != nil); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("rendered", "report", rep.Name, "pages", p.TotalPages(), "format", format, "out", out)
	return nil
}

// dataFactory combines the CSV files given with --data and the HTTP
// endpoint. CSV queries win.
func (o *renderOptions) dataFactory(fetcher resource.Fetcher, logger *slog.Logger) (report.DataFactory, error) {
	files, err := parseData(o.data)
	if err != nil {
		return nil, err
	}
	var fs datasource.CompoundFactory
	if len(files) > 0 {
		csv := datasource.NewCSVFactory(fetcher)
		csv.Files = files
		fs = append(fs, csv)
	}
	if o.endpoint != "" {
		fs = append(fs, datasource.NewHTTPFactory(o.endpoint, nil, logger))
	}
	if len(fs) == 0 {
		return nil, nil
	}
	return fs, nil
}

func parseData(flags []string) (map[string]string, error) {
	files := map[string]string{}
	for _, d := range flags {
		q, p, ok := strings.Cut(d, "=")
		if !ok || q == "" || p == "" {
			return nil, fmt.Errorf("--data %q: want query=path", d)
		}
		files[q] = p
	}
	return files, nil
}

// output returns the format and output path of a render of path.
func (o *renderOptions) output(cfg *config.Config, path string) (format, out string) {
	format = o.format
	if format == "" {
		format = cfg.Output.Format
	}
	out = o.out
	if out == "" {
		out = defaultOutput(path, format)
	}
	return format, out
}

func defaultOutput(reportPath, format string) string {
	base := strings.TrimSuffix(reportPath, filepath.Ext(reportPath))
	if format == "png" {
		return base + "-pages"
	}
	return base + "." + format
}

// newSink opens the output. The returned func closes the file and removes
// it when the run failed.
func (o *renderOptions) newSink(eng *engine.Engine, rep *report.MasterReport, format, out string) (engine.PageSink, func(failed bool) error, error) {
	if format == "png" {
		dpi := o.dpi
		if dpi <= 0 {
			dpi = eng.Config.Output.DPI
		}
		faces, _ := eng.Measurer.(raster.FaceSource)
		return raster.NewSink(out, raster.NewRenderer(dpi, faces)), func(bool) error { return nil }, nil
	}

	var newSink func(io.Writer) engine.PageSink
	switch format {
	case "pdf":
		newSink = func(w io.Writer) engine.PageSink { return pdf.NewSink(w, rep.Name) }
	case "xlsx":
		newSink = func(w io.Writer) engine.PageSink {
			s := xlsx.NewSink(w)
			s.PageBands = o.pageBands
			return s
		}
	case "html":
		newSink = func(w io.Writer) engine.PageSink { return htmlout.NewSink(w, rep.Name) }
	case "csv":
		newSink = func(w io.Writer) engine.PageSink {
			s := csvout.NewSink(w)
			s.PageBands = o.pageBands
			return s
		}
	default:
		return nil, nil, fmt.Errorf("unknown format %q, want one of %s", format, strings.Join(formats, ", "))
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, nil, err
	}
	closeOut := func(failed bool) error {
		err := f.Close()
		if failed {
			return os.Remove(out)
		}
		return err
	}
	return newSink(f), closeOut, nil
}

func newPagesCommand(g *globalOptions) *cobra.Command {
	o := &renderOptions{globalOptions: g}
	cmd := &cobra.Command{
		Use:   "pages REPORT",
		Short: "Paginate a report and print the page count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			fetcher := resource.NewFetcher(filepath.Dir(args[0]))
			eng, err := engine.New(cfg, engine.WithLogger(logger), engine.WithFetcher(fetcher))
			if err != nil {
				return err
			}
			rep, err := eng.LoadReport(args[0])
			if err != nil {
				return err
			}
			if rep.DataFactory, err = o.dataFactory(fetcher, logger); err != nil {
				return err
			}
			p := eng.NewProcessor(rep)
			p.OnlyPagination = true
			if err := p.Run(cmd.Context(), nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.TotalPages())
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&o.data, "data", "d", nil, "CSV data as query=path, repeatable")
	cmd.Flags().StringVar(&o.endpoint, "endpoint", "", "HTTP data service")
	return cmd
}
