package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/mitchellh/cli"

	"github.com/kmowery/tinytable/cmd/tinytable/command"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || args[0] != "shell" {
		args = append([]string{"shell"}, args...)
	}

	commands := map[string]cli.CommandFactory{
		"shell": func() (cli.Command, error) {
			return &command.ShellCommand{
				ShutDownCh: makeShutdownCh(),
			}, nil
		},
	}

	tinyCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("tinytable"),
	}

	exitCode, err := tinyCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}

func makeShutdownCh() <-chan struct{} {
	shutdownCh := make(chan struct{})
	signalCh := make(chan os.Signal, 1)

	signal.Notify(signalCh, os.Interrupt)

	go func() {
		defer close(shutdownCh)
		<-signalCh
	}()

	return shutdownCh
}
