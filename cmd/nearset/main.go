// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// nearset is an approximate string matching tool. It builds an in-memory
// n-gram index over a collection of strings read from text, JSON or CSV
// input and answers similarity queries against it, either as a plain match
// list or ranked with scores.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kortschak/nearset/feature"
	"github.com/kortschak/nearset/index"
	"github.com/kortschak/nearset/internal/ingest"
	"github.com/kortschak/nearset/measure"
	"github.com/kortschak/nearset/search"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:          "nearset",
		Short:        "approximate string matching over n-gram feature sets",
		SilenceUsage: true,
	}
	root.AddCommand(buildCommand(log), searchCommand(log))
	return root
}

// buildOpts are the indexing options shared by the build and search
// subcommands.
type buildOpts struct {
	ngram     int
	extractor string
	marker    string
	format    string
	column    int
}

func (o *buildOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.ngram, "ngram", "n", 3, "n-gram size")
	cmd.Flags().StringVar(&o.extractor, "extractor", "char", "feature extractor (char|word)")
	cmd.Flags().StringVar(&o.marker, "marker", "$", "end marker for n-grams")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "input format (text|json|csv)")
	cmd.Flags().IntVar(&o.column, "column", 0, "CSV column index (only used with --format csv)")
}

func buildCommand(log zerolog.Logger) *cobra.Command {
	var (
		opts     buildOpts
		database string
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "build [flags] <input>",
		Short: "build a database from file sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if quiet {
				log = log.Level(zerolog.Disabled)
			}
			_, err := buildIndex(log, args[0], opts)
			if err != nil {
				return err
			}
			log.Info().Str("database", database).
				Msg("database built successfully (in-memory only); provide the source again with --source to search")
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&database, "database", "d", "", "database output path (accepted, not persisted)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	cobra.CheckErr(cmd.MarkFlagRequired("database"))
	return cmd
}

func searchCommand(log zerolog.Logger) *cobra.Command {
	var (
		opts       buildOpts
		database   string
		source     string
		similarity string
		threshold  float64
		output     string
		ranked     bool
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "search [flags] [query ...]",
		Short: "search a database for similar strings",
		RunE: func(_ *cobra.Command, args []string) error {
			if quiet {
				log = log.Level(zerolog.Disabled)
			}
			if database != "" {
				log.Info().Str("database", database).Msg("no on-disk format exists; rebuilding from source")
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output format: %q", output)
			}
			m, err := measureFor(similarity)
			if err != nil {
				return err
			}
			ix, err := buildIndex(log, source, opts)
			if err != nil {
				return err
			}
			srch := search.New(ix, m)

			failed := 0
			run := func(query string) {
				err := performSearch(os.Stdout, srch, query, threshold, ranked, output, quiet)
				if err != nil {
					log.Error().Err(err).Str("query", query).Msg("search failed")
					failed++
				}
			}
			if len(args) == 0 {
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					run(sc.Text())
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("error reading queries: %w", err)
				}
			} else {
				for _, query := range args {
					run(query)
				}
			}
			if failed != 0 {
				return fmt.Errorf("%d queries failed", failed)
			}
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&database, "database", "d", "", "database path (accepted, not read)")
	cmd.Flags().StringVar(&source, "source", "", "input source used to build the database (required)")
	cmd.Flags().StringVarP(&similarity, "similarity", "s", "cosine", "similarity measure (cosine|dice|jaccard|overlap|exact)")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.8, "similarity threshold")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "include similarity scores in output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress headers and metadata")
	cobra.CheckErr(cmd.MarkFlagRequired("source"))
	return cmd
}

// buildIndex reads the strings in the input file and indexes them with the
// configured extractor.
func buildIndex(log zerolog.Logger, path string, opts buildOpts) (*index.Index, error) {
	x, err := extractorFor(opts.extractor, opts.ngram, opts.marker)
	if err != nil {
		return nil, err
	}
	log.Info().Str("input", path).Msg("building database")
	start := time.Now()

	strs, err := loadStrings(path, opts.format, opts.column)
	if err != nil {
		return nil, err
	}
	ix := index.New(x)
	for _, s := range strs {
		ix.Insert(s)
	}

	stats := ix.Describe()
	log.Info().Int("strings", stats.Strings).
		Float64("mean_features", stats.MeanFeatures).
		Int("postings", stats.Postings).
		Dur("elapsed", time.Since(start)).
		Msg("indexed strings")
	return ix, nil
}

func extractorFor(name string, n int, marker string) (feature.Extractor, error) {
	switch name {
	case "char":
		return feature.Char{N: n, Marker: marker}, nil
	case "word":
		return feature.Word{N: n, Splitter: " ", Padder: marker}, nil
	default:
		return nil, fmt.Errorf("unknown extractor: %q", name)
	}
}

func measureFor(name string) (measure.Measure, error) {
	switch name {
	case "cosine":
		return measure.Cosine{}, nil
	case "dice":
		return measure.Dice{}, nil
	case "jaccard":
		return measure.Jaccard{}, nil
	case "overlap":
		return measure.Overlap{}, nil
	case "exact":
		return measure.Exact{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity measure: %q", name)
	}
}

func loadStrings(path, format string, column int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch format {
	case "text":
		return ingest.Text(f)
	case "json":
		return ingest.JSON(f)
	case "csv":
		return ingest.CSV(f, column)
	default:
		return nil, fmt.Errorf("unknown input format: %q", format)
	}
}

// rankedMatch is the JSON form of a ranked search result.
type rankedMatch struct {
	Match string  `json:"match"`
	Score float64 `json:"score"`
}

// performSearch runs one query and writes its results to w.
func performSearch(w io.Writer, srch *search.Searcher, query string, threshold float64, ranked bool, output string, quiet bool) error {
	if ranked {
		results, err := srch.RankedSearch(query, threshold)
		if err != nil {
			return err
		}
		switch output {
		case "json":
			matches := make([]rankedMatch, len(results))
			for i, r := range results {
				matches[i] = rankedMatch{Match: r.Text, Score: r.Score}
			}
			return json.NewEncoder(w).Encode(matches)
		default:
			if !quiet {
				fmt.Fprintf(w, "Results for '%s':\n", query)
			}
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%.4f\n", r.Text, r.Score)
			}
			return nil
		}
	}

	results, err := srch.Search(query, threshold)
	if err != nil {
		return err
	}
	switch output {
	case "json":
		return json.NewEncoder(w).Encode(results)
	default:
		if !quiet {
			fmt.Fprintf(w, "Results for '%s':\n", query)
		}
		for _, r := range results {
			fmt.Fprintln(w, r)
		}
		return nil
	}
}
