package binpac

import (
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParserDescriptor is the runtime ABI entry a unit's `%mime-type`/`%port`
// properties register with the global MIME registry / port table at
// module init (§4.6.1/§6).
type ParserDescriptor struct {
	UnitName     string
	MIMETypes    []string
	Ports        []string
	ParseFunc    func(input []byte, s *Sink) (*ParseObject, error)
	ParseFuncSink func(po *ParseObject, beginIter int, userCookie string) (*ParseObject, error)
	NewFunc      func(s *Sink, mime string) (*ParseObject, error)
}

// MIMERegistry is the process-wide `mime_bytes -> ordered list of
// parsers` map (§4.7), grounded on query_pipeline.go's
// registration/lookup shape generalized from a query cache to a
// three-bucket (exact/major/wildcard) multimap.
type MIMERegistry struct {
	mu      sync.Mutex
	buckets *orderedmap.OrderedMap[string, []*ParserDescriptor]
}

var globalMIMERegistry = NewMIMERegistry()

func NewMIMERegistry() *MIMERegistry {
	return &MIMERegistry{buckets: orderedmap.New[string, []*ParserDescriptor]()}
}

// Register normalizes and indexes d under every key its declared MIME
// types imply: `type/*` registers under the major only, `*` registers
// under the empty wildcard key, and a fully-qualified `type/subtype`
// registers under its exact key (§4.7).
func (r *MIMERegistry) Register(d *ParserDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range d.MIMETypes {
		key := normalizeMIMEKey(mt)
		existing, _ := r.buckets.Get(key)
		r.buckets.Set(key, append(existing, d))
	}
}

func normalizeMIMEKey(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "*" || mt == "" {
		return ""
	}
	if strings.HasSuffix(mt, "/*") {
		return strings.TrimSuffix(mt, "/*")
	}
	major, sub := splitDeclaredMIME(mt)
	if sub == "" {
		return major
	}
	return major + "/" + sub
}

// splitDeclaredMIME validates and splits a declared `%mime-type` into
// its major/subtype halves (§4.7: mimetype is used "only to validate
// and split a declared %mime-type ... not to sniff content"). When
// mimetype's own known-type tree recognizes the declared string, its
// canonical split is authoritative; an application-specific type
// mimetype has never seen (BinPAC units commonly declare vendor MIME
// types no sniffing library tracks) is still a legal declaration, so
// unrecognized strings fall back to a plain "/" split.
func splitDeclaredMIME(mt string) (major, sub string) {
	if known := mimetype.Lookup(mt); known != nil {
		if kmajor, ksub, ok := strings.Cut(known.String(), "/"); ok {
			return kmajor, ksub
		}
	}
	if idx := strings.IndexByte(mt, '/'); idx >= 0 {
		return mt[:idx], mt[idx+1:]
	}
	return mt, ""
}

// Lookup implements `connect_by_mime`'s union of the exact, major-only,
// and wildcard buckets, in that order, each preserving registration
// order within itself (§4.7, testable property #8).
func (r *MIMERegistry) Lookup(mimeType string) []*ParserDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	exact := strings.TrimSpace(mimeType)
	major := exact
	if idx := strings.IndexByte(exact, '/'); idx >= 0 {
		major = exact[:idx]
	}

	var out []*ParserDescriptor
	if ps, ok := r.buckets.Get(exact); ok {
		out = append(out, ps...)
	}
	if major != exact {
		if ps, ok := r.buckets.Get(major); ok {
			out = append(out, ps...)
		}
	}
	if ps, ok := r.buckets.Get(""); ok {
		out = append(out, ps...)
	}
	return out
}

func RegisterGlobalParser(d *ParserDescriptor) { globalMIMERegistry.Register(d) }

func LookupGlobalMIME(mimeType string) []*ParserDescriptor { return globalMIMERegistry.Lookup(mimeType) }
