package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/jpfielding/imagefile.go/pkg/imagefile"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
	"github.com/jpfielding/imagefile.go/pkg/util"
)

// Report is what inspect prints for one image.
type Report struct {
	Format      string         `json:"format"`
	Description string         `json:"description"`
	Mode        string         `json:"mode"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Layers      int            `json:"layers,omitempty"`
	Tiles       []tile.Tile    `json:"tiles"`
	Info        map[string]any `json:"info,omitempty"`
	Palette     []string       `json:"palette,omitempty"`
	Fingerprint string         `json:"fingerprint"`
}

// NewInspectCmd prints the header of an image without decoding pixels.
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "print the header of an image",
		Long:  "Identifies the container format and prints mode, size, tiles and format specific values. Input may be zstd or gzip compressed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("uri")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			h, err := openInput(in, imagefile.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			withPalette, _ := cmd.Flags().GetBool("palette")
			rep, err := NewReport(h, withPalette)
			if err != nil {
				return err
			}
			slog.DebugContext(ctx, "inspected", "format", rep.Format, "fingerprint", rep.Fingerprint)
			switch out, _ := cmd.Flags().GetString("format"); out {
			case "text":
				return rep.WriteText(cmd.OutOrStdout())
			default:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "image file path, or - for stdin")
	pf.StringP("format", "f", "json", "output format (text|json)")
	pf.Bool("palette", false, "include the colour table as hex strings")
	return cmd
}

// NewReport summarises an opened header. The fingerprint is a UUID of the
// header's JSON form, so identical headers share it.
func NewReport(h *imagefile.Header, withPalette bool) (*Report, error) {
	meta := h.Meta()
	rep := &Report{
		Format:      h.Format(),
		Description: h.Describe(),
		Mode:        h.Mode().String(),
		Width:       meta.Size.X,
		Height:      meta.Size.Y,
		Layers:      meta.Layers,
		Tiles:       meta.Tiles,
		Info:        meta.Info,
		Fingerprint: util.HashUUID(meta),
	}
	if withPalette && h.Palette() != nil {
		rp, err := h.Palette().Realize()
		if err != nil {
			return nil, err
		}
		for _, c := range rp.Colors() {
			cf, ok := colorful.MakeColor(c)
			if !ok {
				rep.Palette = append(rep.Palette, "transparent")
				continue
			}
			rep.Palette = append(rep.Palette, cf.Hex())
		}
	}
	return rep, nil
}

// WriteText prints the report as aligned key/value lines.
func (r *Report) WriteText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "format:      %s (%s)\n", r.Format, r.Description)
	fmt.Fprintf(&sb, "mode:        %s\n", r.Mode)
	fmt.Fprintf(&sb, "size:        %dx%d\n", r.Width, r.Height)
	if r.Layers > 0 {
		fmt.Fprintf(&sb, "layers:      %d\n", r.Layers)
	}
	fmt.Fprintf(&sb, "fingerprint: %s\n", r.Fingerprint)
	keys := make([]string, 0, len(r.Info))
	for k := range r.Info {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "info.%s: %v\n", k, r.Info[k])
	}
	for i, t := range r.Tiles {
		fmt.Fprintf(&sb, "tile[%d]:     %s %v offset=%d rawmode=%q stride=%d orientation=%d", i, t.Codec, t.Box, t.Offset, t.Args.RawMode, t.Args.Stride, t.Args.Orientation)
		if t.Args.IsPlanar() {
			fmt.Fprintf(&sb, " plane=%d", t.Args.Plane)
		}
		sb.WriteByte('\n')
	}
	if len(r.Palette) > 0 {
		fmt.Fprintf(&sb, "palette:     %s\n", strings.Join(r.Palette, " "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
