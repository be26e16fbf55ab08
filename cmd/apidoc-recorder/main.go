package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sadopc/apidoc-recorder/pkg/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "record":
			recordCmd(os.Args[2:])
			return
		case "serve":
			serveCmd()
			return
		case "status":
			statusCmd()
			return
		case "list":
			listCmd()
			return
		case "show":
			showCmd()
			return
		case "clear":
			clearCmd()
			return
		case "export":
			exportCmd()
			return
		case "import":
			importCmd()
			return
		case "submit":
			submitCmd()
			return
		case "completion":
			completionCmd()
			return
		case "version", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}
	recordCmd(os.Args[1:])
}

func printVersion() {
	fmt.Printf("apidoc-recorder %s (%s) built %s\n", version.Version, version.Commit, version.Date)
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `apidoc-recorder - record browser API traffic and turn it into docs

Usage:
  apidoc-recorder [flags]                    Launch the recording panel
  apidoc-recorder <command> [args] [flags]   Run a subcommand

Commands:
  record      Launch the recording panel (default)
  serve       Run the control API and devtools watcher without a panel
  status      Show whether a recording is in progress
  list        List recorded requests
  show        Print one recorded request
  clear       Remove all recorded requests and stop recording
  export      Write the recording as a HAR file
  import      Load requests from a HAR file into the recording
  submit      Send the recording to the documentation backend
  completion  Generate shell completion scripts (bash, zsh, fish)
  version     Print version information
  help        Show this help message

Every command accepts --config <path> (default ~/.config/apidoc-recorder/config.yaml).

Run 'apidoc-recorder <command> --help' for more information about a command.
`)
}

// parseArgs parses fs from args, allowing flags after positional arguments,
// and returns the positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}
