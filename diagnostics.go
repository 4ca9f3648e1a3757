package binpac

import (
	"fmt"

	"github.com/binpac-go/binpac/ascii"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Log is the package-level structured logger every pass writes
// through. Callers of the library may replace its output/level via
// logrus's own API (e.g. binpac.Log.SetLevel, binpac.Log.SetOutput);
// the compiler never panics on a logging failure.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// passLog returns a logger entry tagged with the current module and
// pass name, so every diagnostic line can be filtered by either.
func passLog(module, pass string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"module": module, "pass": pass})
}

// Diagnostics accumulates every compile-time error recorded across a
// single compilation (§7: "compilation continues to collect
// additional errors where meaningful, then aborts before code
// emission if any were recorded").
type Diagnostics struct {
	errs  *multierror.Error
	color bool
}

func NewDiagnostics(cfg *Config) *Diagnostics {
	return &Diagnostics{color: cfg.GetBool("diagnostics.color")}
}

// Report appends a compile-time error. Nil is ignored so call sites
// can report unconditionally: d.Report(maybeErr()).
func (d *Diagnostics) Report(err error) {
	if err == nil {
		return
	}
	d.errs = multierror.Append(d.errs, err)
	Log.WithField("pass", "diagnostics").Debug(err.Error())
}

// HasErrors returns true if any error was recorded.
func (d *Diagnostics) HasErrors() bool {
	return d.errs != nil && d.errs.Len() > 0
}

// Err returns the aggregate error, or nil if none were recorded. This
// is what a driver checks before proceeding to code emission.
func (d *Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}
	return d.errs
}

// Errors returns the individual recorded errors in report order.
func (d *Diagnostics) Errors() []error {
	if d.errs == nil {
		return nil
	}
	return d.errs.Errors
}

// String is the human-readable diagnostic report the spec's grammar
// analyzer (§4.3) is required to produce "rather than a hard fail."
func (d *Diagnostics) String() string {
	if !d.HasErrors() {
		return ""
	}
	out := ""
	for _, err := range d.errs.Errors {
		line := err.Error()
		if d.color {
			line = ascii.Color(ascii.DefaultTheme.Error, "%s", line)
		}
		out += fmt.Sprintln(line)
	}
	return out
}
