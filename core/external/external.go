// Package external resolves metadata for objects hosted elsewhere and
// embedded by markup, such as a video player iframe.
package external

import (
	"strings"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/leaf"
	"github.com/rdogmartin/gallerymeta/internal/metrics"
)

// Resolver answers HtmlSource and the stored leaf kinds. There is no file to
// read.
type Resolver struct {
	base *leaf.Resolver
	obj  core.MediaObject
}

var _ core.Resolver = (*Resolver)(nil)

// New returns the external-object resolver for obj.
func New(obj core.MediaObject, env leaf.Env) *Resolver {
	return &Resolver{base: leaf.New(obj, env), obj: obj}
}

// Get implements core.Resolver. The embed markup is returned verbatim.
func (r *Resolver) Get(kind core.Kind) (core.MetaValue, bool, error) {
	if kind == core.KindHtmlSource {
		if strings.TrimSpace(r.obj.ExternalHTML) == "" {
			return core.MetaValue{}, false, nil
		}
		r.base.Hit(core.MediaExternal, metrics.TierStored)
		return core.TextValue(r.obj.ExternalHTML), true, nil
	}
	return r.base.Get(kind)
}
