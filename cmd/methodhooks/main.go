package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/codysoyland/methodhooks/pkg/logging"
	"github.com/codysoyland/methodhooks/pkg/plan"
)

func main() {
	// Optional .env with METHODHOOKS_* settings
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		demoCommand()
	case "validate":
		validateCommand()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "methodhooks - Run hooks before and after methods of dispatch classes\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  methodhooks demo [-v] [-plan file]\n")
	fmt.Fprintf(os.Stderr, "  methodhooks validate <plan.yaml>\n")
	fmt.Fprintf(os.Stderr, "  methodhooks help\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  demo      Call the built-in Dummy class before, during and after wrapping it\n")
	fmt.Fprintf(os.Stderr, "  validate  Check a wrap plan file\n")
	fmt.Fprintf(os.Stderr, "  help      Show this help message\n\n")
	fmt.Fprintf(os.Stderr, "Environment:\n")
	fmt.Fprintf(os.Stderr, "  METHODHOOKS_VERBOSE  Enable verbose output\n")
	fmt.Fprintf(os.Stderr, "  METHODHOOKS_PLAN     Default plan file for demo\n")
}

// envVerbose reads METHODHOOKS_VERBOSE the way the flag would be set
func envVerbose() bool {
	v := strings.TrimSpace(os.Getenv("METHODHOOKS_VERBOSE"))
	return v != "" && strings.ToLower(v) != "false" && v != "0"
}

func demoCommand() {
	demoFlags := flag.NewFlagSet("demo", flag.ExitOnError)
	verbose := demoFlags.Bool("v", envVerbose(), "Enable verbose output")
	planPath := demoFlags.String("plan", os.Getenv("METHODHOOKS_PLAN"), "Wrap plan file (defaults to the built-in plan)")

	demoFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: methodhooks demo [-v] [-plan file]\n")
		fmt.Fprintf(os.Stderr, "\nCall the built-in Dummy class before, during and after wrapping it\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		demoFlags.PrintDefaults()
	}

	if err := demoFlags.Parse(os.Args[2:]); err != nil {
		log.Fatal(err)
	}

	logger := logging.NewWithWriter(os.Stderr, "console", logging.Verbose(*verbose))

	var p *plan.Plan
	var err error
	if *planPath != "" {
		p, err = plan.Load(*planPath)
	} else {
		p, err = plan.Parse([]byte(defaultPlan))
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load plan")
	}

	if err := runDemo(os.Stdout, p, logger, *verbose); err != nil {
		logger.Fatal().Err(err).Msg("demo failed")
	}
}

func validateCommand() {
	args := os.Args[2:]
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: methodhooks validate <plan.yaml>\n")
		os.Exit(1)
	}

	p, err := plan.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reg, err := newFixtures()
	if err != nil {
		log.Fatal(err)
	}
	unknown := 0
	for _, e := range p.Wraps {
		if !reg.Has(e.Class) {
			fmt.Fprintf(os.Stderr, "Warning: %s names a class the demo does not define\n", e)
			unknown++
		}
	}
	fmt.Printf("%s: %d wraps OK", args[0], len(p.Wraps))
	if unknown > 0 {
		fmt.Printf(" (%d not in demo fixtures)", unknown)
	}
	fmt.Println()
}
