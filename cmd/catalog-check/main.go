// catalog-check validates the trigger catalog and questionnaire files and
// prints a per-category breakdown. Meant for CI and for authors editing the
// datasets by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/s86039924-byte/stress-dost-engine/internal/catalog"
	"github.com/s86039924-byte/stress-dost-engine/internal/personality"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

func main() {
	catalogPath := flag.String("catalog", "data/triggers.yaml", "path to the trigger catalog")
	questionnairePath := flag.String("questionnaire", "", "optionally validate a personality questionnaire")
	flag.Parse()

	cat, err := catalog.Load(*catalogPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid catalog: %v\n", err)
		os.Exit(1)
	}
	if err := cat.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid catalog: %v\n", err)
		os.Exit(1)
	}

	total := 0
	for _, c := range trigger.Categories() {
		n := cat.Size(c)
		total += n
		fmt.Printf("  %-14s %d triggers\n", c, n)
	}
	fmt.Printf("OK: %s (%d triggers)\n", *catalogPath, total)

	if *questionnairePath != "" {
		assessor, err := personality.Load(*questionnairePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid questionnaire: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("OK: %s (%d questions)\n", *questionnairePath, len(assessor.Questions()))
	}
}
