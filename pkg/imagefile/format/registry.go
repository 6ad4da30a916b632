package format

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

type entry struct {
	open        OpenFunc
	sniff       SniffFunc
	description string
}

// Registry maps format ids to openers, sniffers and savers, and file
// extensions and MIME types to format ids. Ids are tried in the order they
// were first registered.
//
// Registration is append/overwrite only. The registry does no locking of its
// own apart from the discovery stage; hosts that register from several
// goroutines must synchronise externally.
type Registry struct {
	ids        []string
	open       map[string]entry
	save       map[string]SaveFunc
	extensions map[string]string
	mimes      map[string]string

	discover   func(*Registry)
	discovered bool
	once       sync.Once
}

// NewRegistry returns an empty registry. discover, when non-nil, runs the first
// time Discover is called and is expected to install the remaining formats.
func NewRegistry(discover func(*Registry)) *Registry {
	return &Registry{
		open:       map[string]entry{},
		save:       map[string]SaveFunc{},
		extensions: map[string]string{},
		mimes:      map[string]string{},
		discover:   discover,
	}
}

// Install registers every part of a plugin.
func (r *Registry) Install(p Plugin) {
	if p.Open != nil {
		r.RegisterOpen(p.ID, p.Open, p.Sniff)
		e := r.open[p.ID]
		e.description = p.Description
		r.open[p.ID] = e
	}
	if p.Save != nil {
		r.RegisterSave(p.ID, p.Save)
	}
	for _, ext := range p.Extensions {
		r.RegisterExtension(p.ID, ext)
	}
	for _, m := range p.MIMETypes {
		r.RegisterMIME(p.ID, m)
	}
}

// RegisterOpen adds an opener. Re-registering an id replaces its functions but
// keeps its original position in the dispatch order.
func (r *Registry) RegisterOpen(id string, open OpenFunc, sniff SniffFunc) {
	id = strings.ToUpper(id)
	prev, ok := r.open[id]
	if !ok {
		r.ids = append(r.ids, id)
	}
	r.open[id] = entry{open: open, sniff: sniff, description: prev.description}
}

// RegisterSave sets the save function for a format.
func (r *Registry) RegisterSave(id string, save SaveFunc) {
	r.save[strings.ToUpper(id)] = save
}

// RegisterExtension binds a file extension (with leading dot) to a format.
func (r *Registry) RegisterExtension(id, ext string) {
	r.extensions[strings.ToLower(ext)] = strings.ToUpper(id)
}

// RegisterMIME binds a MIME type to a format.
func (r *Registry) RegisterMIME(id, mime string) {
	r.mimes[strings.ToLower(mime)] = strings.ToUpper(id)
}

// Identify yields, in registration order, every format whose sniffer accepts
// prefix. A format without a sniffer always matches. The sequence is lazy:
// sniffers run only as far as the consumer iterates.
func (r *Registry) Identify(prefix []byte) iter.Seq2[string, OpenFunc] {
	return func(yield func(string, OpenFunc) bool) {
		for _, id := range r.ids {
			e := r.open[id]
			if e.sniff != nil && !e.sniff(prefix) {
				continue
			}
			if !yield(id, e.open) {
				return
			}
		}
	}
}

// Opener returns the opener registered for id.
func (r *Registry) Opener(id string) (OpenFunc, bool) {
	e, ok := r.open[strings.ToUpper(id)]
	return e.open, ok
}

// Saver returns the save function registered for id.
func (r *Registry) Saver(id string) (SaveFunc, bool) {
	s, ok := r.save[strings.ToUpper(id)]
	return s, ok
}

// IDForExtension resolves a file extension such as ".bmp".
func (r *Registry) IDForExtension(ext string) (string, bool) {
	id, ok := r.extensions[strings.ToLower(ext)]
	return id, ok
}

// IDForMIME resolves a MIME type such as "image/xbm".
func (r *Registry) IDForMIME(mime string) (string, bool) {
	id, ok := r.mimes[strings.ToLower(mime)]
	return id, ok
}

// IDs returns registered opener ids in dispatch order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Describe returns the human readable description of a format.
func (r *Registry) Describe(id string) string {
	return r.open[strings.ToUpper(id)].description
}

// Extensions returns the extensions bound to id, sorted.
func (r *Registry) Extensions(id string) []string {
	id = strings.ToUpper(id)
	var res []string
	for ext, owner := range r.extensions {
		if owner == id {
			res = append(res, ext)
		}
	}
	slices.Sort(res)
	return res
}

// Discover runs the discovery stage once. Later calls do nothing.
func (r *Registry) Discover() {
	r.once.Do(func() {
		if r.discover != nil {
			r.discover(r)
		}
		r.discovered = true
	})
}

// Discovered reports whether Discover has run.
func (r *Registry) Discovered() bool {
	return r.discovered
}
