package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/summary"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	step := flag.Float64("step", 1, "Minutes between two log samples")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-step minutes] data/prototype_log.csv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	l, err := summary.Load(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load log")
	}
	if l.Skipped > 0 {
		log.Debug().Int("skipped", l.Skipped).Msg("malformed lines ignored")
	}
	report(os.Stdout, l, *step)
}

// report prints the sample count and the energy with six significant digits.
func report(w io.Writer, l *summary.Log, step float64) {
	fmt.Fprintf(w, "Loaded samples : %d\n", l.Count())
	fmt.Fprintf(w, "Total energy   : %.6g Wh (assuming %g-minute step)\n", l.TotalEnergyWh(step), step)
}
