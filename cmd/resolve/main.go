package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/woozymasta/sensormap/internal/geo"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input     string `short:"i" long:"in"        description:"Input file with one \"name;location\" per line. Reads from stdin if empty"`
	Output    string `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Format    string `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Precision int    `short:"p" long:"precision" description:"MGRS digits per axis in output properties" default:"5"`
	Strict    bool   `short:"s" long:"strict"    description:"Fail on the first line that does not resolve"`
}

// lineError describes an input line that could not be resolved.
type lineError struct {
	Err  error
	Line int
}

func (e lineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// convert reads "name;location" lines and resolves each location.
// Blank lines and lines starting with '#' are ignored; a line without ';'
// is a bare location named after its line number.
func convert(r io.Reader, precision int, strict bool) (geo.GeoJSONFeatureCollection, []lineError, error) {
	fc := geo.NewFeatureCollection()
	var skipped []lineError

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, location, ok := strings.Cut(line, ";")
		if !ok {
			name, location = strconv.Itoa(lineNo), line
		}
		name = strings.TrimSpace(name)
		location = strings.TrimSpace(location)

		p, err := geo.Resolve(location)
		if err != nil {
			lerr := lineError{Line: lineNo, Err: err}
			if strict {
				return fc, nil, lerr
			}
			skipped = append(skipped, lerr)
			continue
		}

		props := map[string]any{
			"name":  name,
			"input": location,
		}
		if m, err := geo.LatLonToMGRS(p, precision); err == nil {
			props["mgrs"] = m.String()
		}

		fc.Features = append(fc.Features, geo.PointFeature(p, props))
	}

	if err := scanner.Err(); err != nil {
		return fc, skipped, err
	}

	return fc, skipped, nil
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Precision < 0 || opts.Precision > 5 {
		fmt.Fprintln(os.Stderr, "Error: --precision must be between 0 and 5")
		os.Exit(1)
	}

	// Read Input
	var in io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	fc, skipped, err := convert(in, opts.Precision, opts.Strict)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "Skipping %v\n", s)
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(fc)
	} else {
		outputData, err = json.MarshalIndent(fc, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully resolved %d locations to %s (format: %s)\n", len(fc.Features), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
