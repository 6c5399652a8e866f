package main

import (
	"fmt"

	"github.com/fatih/color"
)

const helpString = `Play several media sources as one

Usage: multisourced [OPTION]... [SOURCE]...

Each SOURCE is a source spec, "tag:path", or a path to an .mp4 file. Track
groups are numbered across sources in the order given. Sources given on the
command line replace those in the configuration file.

Composition:
  -c, --config=FILE        TOML composition file
  -p, --position=DURATION  Start position (default: 0s)
  -b, --buffer-ahead=DUR   How far file sources buffer ahead (default: 5s)
  -i, --interval=DURATION  Polling interval (default: 100ms)

Status:
  -l, --listen=ADDR        Serve websocket status feed on ADDR
  -q, --quiet              Do not print progress
      --log-level=LEVELS   Logging directives, e.g. "warn,multisource=debug"

Miscellaneous:
  -h, --help               Prints this help message and exits
  -v, --version            Prints version information and exits

Please report bugs to: aloha@lanikailabs.com`

// Help information is printed and program exits
func help() {
	title := color.New(color.FgCyan, color.Bold)
	title.Println("multisourced")
	fmt.Println(helpString)
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("multisourced", GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
}
