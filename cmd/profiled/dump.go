package main

import (
	"easyprofile/internal/persist"
	"easyprofile/internal/profile"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	dumpFormat string

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print every entry of the stored profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(cmd)
			if err != nil {
				return err
			}
			return dump(cmd.OutOrStdout(), p, dumpFormat)
		},
	}

	setCmd = &cobra.Command{
		Use:   "set <category> <entry> <json-value>",
		Short: "Write one entry and flush it to the store",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd)
			if err != nil {
				return err
			}
			if err := assignJSON(p, args[0], args[1], []byte(args[2])); err != nil {
				return err
			}
			names, err := persist.Flush(cmd.Context(), p, store, cfg.ProfileID)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "unchanged")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flushed %v\n", names)
			return nil
		},
	}
)

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "output", "o", "table", "output format: table, json or export")
}

func loadProfile(cmd *cobra.Command) (*profile.Profile, error) {
	p, err := profile.New(categories())
	if err != nil {
		return nil, err
	}
	if _, err := persist.Load(cmd.Context(), p, store, cfg.ProfileID); err != nil {
		return nil, err
	}
	return p, nil
}

func assignJSON(p *profile.Profile, category, entry string, data []byte) error {
	d, ok := p.Category(category)
	if !ok {
		return fmt.Errorf("%w: %s", profile.ErrUnknownCategory, category)
	}
	i, ok := d.IndexOf(entry)
	if !ok {
		return fmt.Errorf("%w: %s has no entry %s", profile.ErrIndexOutOfRange, category, entry)
	}
	v, err := d.DecodeValue(data, json.Unmarshal)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", category, entry, err)
	}
	return p.Assign(d, i, v, true)
}

func dump(w io.Writer, p *profile.Profile, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(persist.Capture(p, cfg.ProfileID, false))
	case "export":
		s, err := persist.Export(persist.Capture(p, cfg.ProfileID, false))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	case "table":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tINDEX\tNAME\tVALUE\tDEFAULT")
	for _, d := range p.Categories() {
		for i := 0; i < d.Len(); i++ {
			v, _ := p.Value(d, i)
			def, _ := p.DefaultValue(d, i)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%v\t%v\n", d.Name(), i, d.EntryName(i), v, def)
		}
	}
	return tw.Flush()
}
