package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"github.com/kmowery/tinytable/internal/backend"
	"github.com/kmowery/tinytable/internal/repl"
)

type ShellCommand struct {
	ShutDownCh <-chan struct{}
}

func (i *ShellCommand) Help() string {
	helpText := `
Usage: tinytable shell [options] <database file>

Options:

	-config=""	Shell configuration file
`

	return strings.TrimSpace(helpText)
}

func (i *ShellCommand) Synopsis() string {
	return "Opens an interactive session against a database file"
}

func (i *ShellCommand) Run(args []string) int {
	var configPath string

	cmdFlags := flag.NewFlagSet("shell", flag.ExitOnError)
	cmdFlags.StringVar(&configPath, "config", "", "config file")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	if cmdFlags.NArg() == 0 {
		fmt.Println("Must supply a database filename.")
		return 1
	}

	config := &backend.Config{}
	if configPath != "" {
		configFile, err := os.Open(configPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error opening config file: %s", err.Error())
			return 1
		}

		configDecoder := yaml.NewDecoder(configFile)
		if err := configDecoder.Decode(config); err != nil {
			_ = configFile.Close()
			_, _ = fmt.Fprintf(os.Stderr, "Error parsing config file: %s", err.Error())
			return 1
		}
		_ = configFile.Close()
	}

	logger := newLogger(config)

	db, err := backend.Open(logger, cmdFlags.Arg(0))
	if err != nil {
		logger.WithError(err).Error("unable to open database")
		return 1
	}

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- repl.Run(db, os.Stdin, os.Stdout)
	}()

	select {
	case <-i.ShutDownCh:
		// No flush on interrupt: only a clean close persists the
		// session's mutations.
		logger.Warn("interrupt, exiting without flush")
		return 1
	case err := <-doneCh:
		if err != nil {
			logger.WithError(err).Error("session failed")
			return 1
		}
	}

	if err := db.Close(); err != nil {
		logger.WithError(err).Error("unable to close database")
		return 1
	}

	return 0
}

func newLogger(config *backend.Config) *log.Logger {
	logger := log.New()

	level := log.WarnLevel
	if config.LogLevel != "" {
		parsed, err := log.ParseLevel(config.LogLevel)
		if err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)

	// Statement output owns stdout; diagnostics go to stderr or, when
	// configured, a rotating file.
	if config.LogFile != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename: config.LogFile,
			MaxSize:  config.LogMaxSizeMB,
		})
	} else {
		logger.SetOutput(os.Stderr)
	}

	return logger
}
