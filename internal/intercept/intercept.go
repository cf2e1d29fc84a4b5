// Package intercept provides method-entry logging by explicit decoration.
//
// A function is "tagged" by wrapping it once, usually when its owner is
// constructed:
//
//	s.persist = intercept.Func(tr, intercept.Tag{Description: "insert book row"}, s.insert)
//
// Every call through the wrapper logs the declaring type, the method name and
// the tag description, then calls the wrapped function with the same
// arguments. Results, errors and panics pass through untouched. Logging is
// fail-open: a failing sink never blocks the call.
//
// Exported and unexported methods are treated alike.
package intercept

import (
	"context"
	"reflect"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tag marks a function for entry logging.
type Tag struct {
	// Description is logged verbatim with every entry record.
	Description string
}

// Site identifies the decorated function.
type Site struct {
	// Type is the fully-qualified declaring type, e.g.
	// "github.com/tbourn/go-book-service/internal/services.BookService".
	// For package-level functions it is the import path.
	Type string
	// Method is the bare function name.
	Method string
}

// methodEntries counts intercepted calls by site.
var methodEntries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intercepted_method_entries_total",
		Help: "Number of calls entering tagged methods.",
	},
	[]string{"type", "method"},
)

func init() {
	prometheus.MustRegister(methodEntries)
}

// Interceptor writes entry records. The zero value and a nil *Interceptor
// both log to the global zerolog logger. Safe for concurrent use.
type Interceptor struct {
	logger *zerolog.Logger
}

// New returns an Interceptor writing to l when the call context carries no
// logger of its own. A nil l means the global logger.
func New(l *zerolog.Logger) *Interceptor {
	return &Interceptor{logger: l}
}

// Before emits one entry record for site. It never panics.
func (i *Interceptor) Before(ctx context.Context, site Site, tag Tag) {
	defer func() { _ = recover() }()

	lg := i.loggerFor(ctx)
	lg.Info().
		Str("type", site.Type).
		Str("method", site.Method).
		Str("description", tag.Description).
		Msg("entering method")

	methodEntries.WithLabelValues(site.Type, site.Method).Inc()

	if ctx == nil {
		return
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("method.enter", trace.WithAttributes(
			attribute.String("code.namespace", site.Type),
			attribute.String("code.function", site.Method),
			attribute.String("description", tag.Description),
		))
	}
}

// loggerFor prefers a logger attached to ctx (request-scoped) and falls back
// to the configured or global logger.
func (i *Interceptor) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	if i != nil && i.logger != nil {
		return i.logger
	}
	return &log.Logger
}

// SiteOf resolves the declaring type and name of fn, which should be a
// method value (s.insert) or a package-level function.
func SiteOf(fn any) Site {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Site{}
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return Site{}
	}
	return parseSite(rf.Name())
}

// parseSite splits a runtime symbol such as
// "example.com/x/pkg.(*T).m-fm" into {"example.com/x/pkg.T", "m"}.
func parseSite(name string) Site {
	name = strings.TrimSuffix(name, "-fm")
	slash := strings.LastIndex(name, "/")
	dot := strings.LastIndex(name, ".")
	if dot <= slash {
		return Site{Method: name}
	}
	typ := strings.NewReplacer("(*", "", ")", "").Replace(name[:dot])
	return Site{Type: typ, Method: name[dot+1:]}
}
