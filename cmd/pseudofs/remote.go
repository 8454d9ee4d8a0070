package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjk/pseudofs/log"
	"github.com/kjk/pseudofs/remote"
)

func newPushCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the container to the configured remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, opts, true)
		},
	}
}

func newPullCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the container with a copy from the configured remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, opts, false)
		},
	}
}

func runRemote(cmd *cobra.Command, opts *options, push bool) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx := cmd.Context()
	r, err := remote.New(ctx, &cfg.Remote)
	if err != nil {
		return err
	}
	name := "pull"
	if push {
		name = "push"
	}
	timeStart := time.Now()
	if push {
		err = r.Push(ctx, cfg.File)
	} else {
		err = r.Pull(ctx, cfg.File)
	}
	if log.IfErrf(err, "%s '%s' %s failed with '%s'\n", name, cfg.File, r, err) {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	log.EventWithDuration(name, time.Since(timeStart), "file", cfg.File, "remote", r.String())
	if push {
		fmt.Fprintf(cmd.OutOrStdout(), "pushed '%s' to %s\n", cfg.File, r)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "pulled '%s' from %s\n", cfg.File, r)
	}
	return nil
}
