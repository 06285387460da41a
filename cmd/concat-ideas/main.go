package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/cognicore/ideascope/pkg/ideascope/idea"
)

func main() {
	var (
		outPath = flag.String("out", "", "Output cache file (required)")
		dir     = flag.String("dir", "", "Concatenate every *.json in this directory")
		keyed   = flag.Bool("keyed", false, "Write the title-keyed form (repeated titles collapse)")
	)
	flag.Parse()

	if *outPath == "" {
		log.Fatal("--out required")
	}
	inputs, err := inputPaths(*dir, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	if len(inputs) == 0 {
		log.Fatal("no input caches given")
	}

	merged, rep, err := idea.Concat(inputs)
	if err != nil {
		log.Fatalf("concat: %v", err)
	}
	if *keyed {
		err = merged.Save(*outPath)
	} else {
		err = merged.SaveList(*outPath)
	}
	if err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("Merged %d files: %d ideas written to %s (%d malformed skipped)", rep.Files, rep.Loaded, *outPath, rep.Skipped)
}

// inputPaths returns dir's *.json files in name order followed by args.
func inputPaths(dir string, args []string) ([]string, error) {
	var out []string
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return append(out, args...), nil
}
