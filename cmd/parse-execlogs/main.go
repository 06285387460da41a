package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cognicore/ideascope/pkg/ideascope/execlog"
)

func main() {
	var (
		dir     = flag.String("dir", "", "Directory of *.log files (required)")
		verbose = flag.Bool("v", false, "Print per-log scores")
		asJSON  = flag.Bool("json", false, "Print scores and tally as JSON")
	)
	flag.Parse()

	if *dir == "" {
		log.Fatal("--dir required")
	}
	scores, err := execlog.ParseDir(*dir)
	if err != nil {
		log.Fatal(err)
	}
	tally := execlog.Count(scores)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Scores []execlog.Scores `json:"scores"`
			Tally  execlog.Tally    `json:"tally"`
		}{scores, tally}); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *verbose {
		for _, s := range scores {
			status := "excluded"
			if s.Complete() {
				status = "fail"
				if s.Passed() {
					status = "pass"
				}
			}
			fmt.Printf("%-40s baseline=%.4f proposed=%.4f style=%.4f %s\n", s.Name, s.Baseline, s.Proposed, s.Style, status)
		}
	}
	fmt.Println(tally)
}
