package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"

	"github.com/couchcryptid/quake-feed-service/internal/config"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Fetch *FetchCommand
	Serve *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "quakefeed"
	parser.LongDescription = "Fetch recent earthquakes from the USGS event feed and present them for display."

	cmds := &commands{
		Fetch: &FetchCommand{globals: &globals, version: version},
		Serve: &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("fetch", "Fetch and print recent earthquakes", "Run the feed pipeline once with the given filters and print the presented records.", cmds.Fetch)
	parser.AddCommand("serve", "Run the HTTP service", "Serve the earthquake feed as JSON with health, readiness, and metrics endpoints.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the quakefeed CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("quakefeed %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}

// loadConfig reads the environment and applies the global overrides.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals != nil && globals.LogLevel != "" {
		cfg.LogLevel = globals.LogLevel
	}
	return cfg, nil
}
