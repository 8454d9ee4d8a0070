package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/kjk/pseudofs/flatstore"
	"github.com/kjk/pseudofs/log"
)

type exportEntry struct {
	Path string `json:"path"`
	// not valid utf-8 is replaced with U+FFFD
	Content string `json:"content"`
}

func exportJSON(store *flatstore.Store, prettify bool) ([]byte, error) {
	// non-nil so that empty store is [] and not null
	res := []exportEntry{}
	for _, e := range store.Entries() {
		res = append(res, exportEntry{
			Path:    e.Path,
			Content: string(e.Content),
		})
	}
	d, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if prettify {
		return pretty.Pretty(d), nil
	}
	return append(d, '\n'), nil
}

func newExportCmd(opts *options) *cobra.Command {
	var prettify bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print all files in the container as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			store, err := flatstore.Load(cfg.File)
			if err != nil {
				log.Errorf("export: flatstore.Load('%s') failed with '%s'\n", cfg.File, err)
				return err
			}
			d, err := exportJSON(store, prettify)
			if err != nil {
				return err
			}
			log.Event("export", "file", cfg.File, "count", store.Count())
			_, err = cmd.OutOrStdout().Write(d)
			return err
		},
	}
	cmd.Flags().BoolVar(&prettify, "pretty", false, "pretty-print JSON")
	return cmd
}
