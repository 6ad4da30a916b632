package imagefile

import (
	"sync"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format/bmp"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format/gd"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format/psd"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format/xbm"
)

// Preinstalled formats are tried before discovery runs.
var Preinstalled = []format.Plugin{bmp.Plugin}

// Discoverable formats are installed by the discovery stage, in this order. GD
// has no sniffer and so goes last.
var Discoverable = []format.Plugin{psd.Plugin, xbm.Plugin, gd.Plugin}

var defaultRegistry = sync.OnceValue(NewDefaultRegistry)

// Registry returns the process-wide registry used when no WithRegistry option
// is given.
func Registry() *format.Registry {
	return defaultRegistry()
}

// NewDefaultRegistry returns a fresh registry with the preinstalled formats
// and a discovery stage that adds the rest.
func NewDefaultRegistry() *format.Registry {
	r := format.NewRegistry(func(r *format.Registry) {
		for _, p := range Discoverable {
			r.Install(p)
		}
	})
	for _, p := range Preinstalled {
		r.Install(p)
	}
	return r
}
