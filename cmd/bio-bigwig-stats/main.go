package main

// See doc.go for documentation
import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/bigio/encoding/bigwig"
)

var (
	file   = flag.String("file", "", "path or URL to a .bw/.bigWig/.bb/.bigBed file")
	chrom  = flag.String("chrom", "", "chromosome name")
	start  = flag.Uint64("start", 0, "region start (0-based)")
	end    = flag.Uint64("end", 0, "region end (exclusive)")
	bins   = flag.Int("bins", 1, "number of equal-width bins")
	stat   = flag.String("stat", "mean", "mean, min, max, sum, coverage, or stdev")
	exact  = flag.Bool("exact", false, "force full-resolution computation, skipping the zoom pyramid")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *file == "" || *chrom == "" {
		fmt.Fprintln(os.Stderr, "usage: bio-bigwig-stats --file=... --chrom=... --start=... --end=...")
		os.Exit(2)
	}

	st, err := bigwig.ParseStatType(*stat)
	if err != nil {
		panic(err.Error())
	}

	f, err := bigwig.Open(*file)
	if err != nil {
		panic(err.Error())
	}
	defer f.Close()

	values, err := f.Stats(*chrom, uint32(*start), uint32(*end), st, bigwig.WithBins(*bins), bigwig.WithExact(*exact))
	if err != nil {
		panic(err.Error())
	}
	for i, v := range values {
		fmt.Printf("%d\t%g\n", i, v)
	}
}
