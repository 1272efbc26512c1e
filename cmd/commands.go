package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags holds the flags shared by every subcommand.
type runFlags struct {
	path     string
	dump     bool
	output   string
	start    string
	end      string
	stations []string
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ingestor",
		Short: "Load GTD incidents and GDELT data into Elasticsearch",
		Long: `
Reads the Global Terrorism Database export and crawls the GDELT TV news
n-grams and 2.0 event exports, mapping every record to a fixed document
shape and bulk loading it. Configuration comes from INGEST_CONFIG (YAML)
and INGEST_* environment variables.
`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newIncidentsCommand(),
		newTVNewsCommand(),
		newEventsCommand(),
	)
	return root
}

func newIncidentsCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "Load a GTD CSV file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c.Context(), model.SourceIncidents, f, c.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.path, "path", "p", "", "path of the GTD CSV file")
	dumpFlags(flags, f)
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newTVNewsCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "tvnews [STATION...]",
		Short: "Crawl GDELT TV news n-grams",
		Example: `  ingestor tvnews -s 20200101 --station CNN BBCNEWS
  ingestor tvnews -s 20200101 --sta CNN,FOXNEWS -e 20200201`,
		Args: cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			f.addStations(args)
			return run(c.Context(), model.SourceTVNews, f, c.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	rangeFlags(flags, f)
	flags.StringSliceVar(&f.stations, "station", nil, "station to crawl, repeatable or comma separated (alias --sta); trailing arguments are stations too")
	flags.SetNormalizeFunc(stationAlias)
	dumpFlags(flags, f)
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("station")
	return cmd
}

func newEventsCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Crawl GDELT 2.0 event exports",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c.Context(), model.SourceEvents, f, c.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	rangeFlags(flags, f)
	dumpFlags(flags, f)
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func dumpFlags(flags *pflag.FlagSet, f *runFlags) {
	flags.BoolVarP(&f.dump, "dump", "d", false, "write documents as JSON lines instead of indexing them")
	flags.StringVarP(&f.output, "output", "o", "", "dump file, <source>.jsonl by default")
}

func rangeFlags(flags *pflag.FlagSet, f *runFlags) {
	flags.StringVarP(&f.start, "start", "s", "", "first day to crawl, yyyymmdd")
	flags.StringVarP(&f.end, "end", "e", time.Now().UTC().Format(model.DayLayout), "day the crawl stops before, yyyymmdd")
}

func stationAlias(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "sta" {
		name = "station"
	}
	return pflag.NormalizedName(name)
}

// dates parses the crawl range.
func (f *runFlags) dates() (start, end time.Time, err error) {
	start, err = model.ParseDay(strings.TrimSpace(f.start))
	if err != nil {
		return start, end, fmt.Errorf("invalid --start %q: %w", f.start, err)
	}
	end, err = model.ParseDay(strings.TrimSpace(f.end))
	if err != nil {
		return start, end, fmt.Errorf("invalid --end %q: %w", f.end, err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("--end %s is before --start %s", f.end, f.start)
	}
	return start, end, nil
}

// addStations appends positional arguments, so "--station CNN BBCNEWS"
// crawls both.
func (f *runFlags) addStations(args []string) {
	f.stations = stations(append(f.stations, args...))
}

func (f *runFlags) dumpPath(source string) string {
	if f.output != "" {
		return f.output
	}
	return source + ".jsonl"
}
