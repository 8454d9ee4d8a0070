package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjk/pseudofs/config"
	"github.com/kjk/pseudofs/flatstore"
	"github.com/kjk/pseudofs/log"
	"github.com/kjk/pseudofs/shell"
	"github.com/kjk/pseudofs/u"
)

// flags shared by all commands, they override config file and env vars
type options struct {
	file       string
	configPath string
	logDir     string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "pseudofs",
		Short: "A flat file store kept in a single container file",
		Long: `pseudofs keeps named files in a single plain text container.

Without a subcommand it loads the container, reads commands from stdin
(type HELP to list them) and saves the container on EXIT or end of input.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			return runShell(cfg.File, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.file, "file", "f", "", fmt.Sprintf("container file (default %q)", config.DefaultContainer))
	pf.StringVar(&opts.configPath, "config", "", fmt.Sprintf("config file (default %q)", config.DefaultConfigPath()))
	pf.StringVar(&opts.logDir, "log-dir", "", "directory for log files")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newExportCmd(&opts))
	cmd.AddCommand(newPushCmd(&opts))
	cmd.AddCommand(newPullCmd(&opts))
	return cmd
}

// loadConfig loads configuration, applies flags and initializes logging
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.File = o.file
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = o.logDir
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose = o.verbose
	}
	if cfg.File == "" {
		return nil, errors.New("container file must not be empty")
	}
	log.Verbose = cfg.Log.Verbose
	log.Init(&log.Config{Dir: cfg.Log.Dir})
	log.Verbosef("%s: container: '%s', log dir: '%s'\n", cmd.Name(), cfg.File, cfg.Log.Dir)
	return cfg, nil
}

// runShell loads the container, runs the command loop and saves the container
func runShell(path string, in io.Reader, out io.Writer) error {
	store, err := flatstore.Load(path)
	if log.IfErrf(err, "flatstore.Load('%s') failed with '%s'\n", path, err) {
		return fmt.Errorf("can't load '%s': %w", path, err)
	}
	if size := u.FileSize(path); size >= 0 {
		log.Verbosef("loaded '%s' (%s), %d files\n", path, u.FormatSize(size), store.Count())
	}
	fmt.Fprintf(out, "pseudo-fs loaded, %d files. Type HELP for help.\n", store.Count())

	timeStart := time.Now()
	sh := shell.New(store, in, out)
	sh.Path = path
	// input errors end the session like EXIT, we still save
	errRun := sh.Run()
	log.IfErrf(errRun, "shell.Run() failed with '%s'\n", errRun)
	err = store.Save(path)
	if log.IfErrf(err, "store.Save('%s') failed with '%s'\n", path, err) {
		return errors.Join(errRun, fmt.Errorf("can't save '%s': %w", path, err))
	}
	log.EventWithDuration("session", time.Since(timeStart), "file", path, "count", store.Count())
	fmt.Fprintln(out, "changes saved")
	return errRun
}
