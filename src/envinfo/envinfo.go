// Package envinfo writes the environment facts placed at the top of every report.
package envinfo

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers process facts for report headers.
type Collector struct {
	Program  string
	Version  string
	Started  time.Time
	Extended bool

	// Components are listed under "Components:" when Extended is set.
	Components []string

	// Overridable for tests.
	now       func() time.Time
	memory    func() uint64
	goVersion string
	goos      string
	goarch    string
}

// NewCollector returns a Collector whose uptime counts from now.
func NewCollector(program, version string, extended bool, components []string) *Collector {
	return &Collector{
		Program:    program,
		Version:    version,
		Started:    time.Now(),
		Extended:   extended,
		Components: components,
		now:        time.Now,
		memory:     totalMemory,
		goVersion:  runtime.Version(),
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
	}
}

// WriteHeader writes one fact per line, followed by the component list in extended mode.
func (c *Collector) WriteHeader(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("%s version %s", c.Program, c.Version),
		"Go Version: " + c.goVersion,
		"Operating System: " + c.goos,
		"OS Architecture: " + c.goarch,
		"Total Memory: " + humanize.IBytes(c.memory()),
		"Uptime: " + FormatUptime(c.now().Sub(c.Started)),
	}

	if c.Extended {
		lines = append(lines, "", "Components:")
		lines = append(lines, c.Components...)
	}

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatUptime renders d in the largest unit that keeps the value readable:
// milliseconds below 10s, seconds below 2m, minutes below 2h, hours below 2 days,
// weeks beyond.
func FormatUptime(d time.Duration) string {
	switch {
	case d < 10*time.Second:
		return fmt.Sprintf("%d milliseconds", d.Milliseconds())
	case d < 2*time.Minute:
		return fmt.Sprintf("%.1f seconds", d.Seconds())
	case d < 2*time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	case d < 48*time.Hour:
		return fmt.Sprintf("%.1f hours", d.Hours())
	default:
		return fmt.Sprintf("%.1f weeks", d.Hours()/24/7)
	}
}

func totalMemory() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
