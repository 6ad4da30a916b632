package cmd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"golang.org/x/image/tiff"

	"github.com/jpfielding/imagefile.go/pkg/imagefile"
)

// NewConvertCmd loads an image and saves it through another registered format.
func NewConvertCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "convert between registered container formats",
		Long:  "Loads the input and saves it with the saver chosen by --to, or by the output extension. PNG, GIF, JPEG and TIFF inputs are accepted too.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			img, from, err := loadInput(args[0], imagefile.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			if err := img.SaveFile(args[1], to); err != nil {
				return fmt.Errorf("failed to save %s: %w", args[1], err)
			}
			slog.InfoContext(ctx, "converted", "from", from, "to", args[1], "mode", img.Mode(), "size", img.Size())
			return nil
		},
	}
	cmd.Flags().StringP("to", "t", "", "output format id (default: from the output extension)")
	return cmd
}

// NewExportCmd writes a decoded image as PNG or TIFF, optionally scaled down.
func NewExportCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <in> <out>",
		Short: "export a decoded image to PNG or TIFF",
		Long:  "Loads the input and encodes its pixels as PNG or TIFF. --fit scales the image to fit within WxH.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fit, _ := cmd.Flags().GetString("fit")
			kind, _ := cmd.Flags().GetString("type")
			img, from, err := loadInput(args[0], imagefile.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			var out image.Image = img.Buffer()
			if fit != "" {
				w, ht, err := parseFit(fit)
				if err != nil {
					return err
				}
				out = imaging.Fit(out, w, ht, imaging.Lanczos)
			}
			if kind == "" {
				kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[1])), ".")
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := export(f, out, kind); err != nil {
				f.Close()
				return err
			}
			slog.InfoContext(ctx, "exported", "from", from, "to", args[1], "bounds", out.Bounds())
			return f.Close()
		},
	}
	pf := cmd.Flags()
	pf.String("fit", "", "scale to fit within WxH, keeping the aspect ratio")
	pf.String("type", "", "png or tiff (default: from the output extension)")
	return cmd
}

func export(w io.Writer, img image.Image, kind string) error {
	switch kind {
	case "png":
		return png.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unknown export type %q", kind)
	}
}

// parseFit reads a "WxH" bound.
func parseFit(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("fit %q is not WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("fit %q: bad width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("fit %q: bad height", s)
	}
	return w, h, nil
}

// NewFormatsCmd lists every registered format after discovery.
func NewFormatsCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "list registered formats",
		Long:  "Runs format discovery and lists each format in dispatch order with its extensions and whether it can save.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := imagefile.Registry()
			reg.Discover()
			var sb strings.Builder
			for _, id := range reg.IDs() {
				_, canSave := reg.Saver(id)
				access := "r"
				if canSave {
					access = "rw"
				}
				fmt.Fprintf(&sb, "%-4s %-3s %-24s %s\n", id, access, reg.Describe(id), strings.Join(reg.Extensions(id), ","))
			}
			_, err := io.WriteString(cmd.OutOrStdout(), sb.String())
			return err
		},
	}
}
