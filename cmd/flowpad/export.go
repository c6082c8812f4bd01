package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flowpad/internal/export"
	"flowpad/internal/loader"
)

func exportCmd(a *app) *cobra.Command {
	var in, out string
	var width, height int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a diagram document to PNG, or convert it to JSON/YAML",
		Long: "Reads a diagram document (or the configured seed) and writes it to --out.\n" +
			"A .png output is rasterized; .json, .yaml and .yml outputs are converted documents.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.Editor.SeedPath
			}
			g, err := loader.Seed(in, a.logger)
			if err != nil {
				return err
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".png":
				renderer, err := export.NewRenderer(export.Options{
					Width:      a.cfg.Export.Width,
					Height:     a.cfg.Export.Height,
					MinZoom:    a.cfg.Export.MinZoom,
					MaxZoom:    a.cfg.Export.MaxZoom,
					Padding:    a.cfg.Export.Padding,
					Background: a.cfg.Export.Background,
				})
				if err != nil {
					return err
				}
				w, h, err := renderer.Size(width, height)
				if err != nil {
					return err
				}

				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := renderer.Encode(f, g, w, h); err != nil {
					f.Close()
					return fmt.Errorf("render %s: %w", out, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", Good.Sprint("wrote"), out,
					Subtle.Sprintf("(%dx%d, %d nodes, %d edges)", w, h, len(g.Nodes), len(g.Edges)))

			case ".json", ".yaml", ".yml":
				if err := loader.SaveFile(out, g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", Good.Sprint("wrote"), out,
					Subtle.Sprintf("(%d nodes, %d edges)", len(g.Nodes), len(g.Edges)))

			default:
				return fmt.Errorf("unsupported output %q: use .png, .json, .yaml or .yml", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Diagram document to read (default: configured seed)")
	cmd.Flags().StringVar(&out, "out", "", "File to write")
	cmd.Flags().IntVar(&width, "width", 0, "PNG width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "PNG height (default from config)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
