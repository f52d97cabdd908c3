package descriptor

import (
	"fmt"
	"strings"
)

// Header is the first line of every updater configuration file
const Header = ";aiu;"

// ReleaseDateLayout renders dates as dd/MM/yyyy
const ReleaseDateLayout = "02/01/2006"

// Render returns the updater configuration file. The text is built on first
// use and returned unchanged afterwards.
func (d *Descriptor) Render() string {
	d.renderOnce.Do(func() {
		d.rendered = d.render()
	})
	return d.rendered
}

// String implements fmt.Stringer
func (d *Descriptor) String() string {
	return d.Render()
}

func (d *Descriptor) render() string {
	var sb strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteString("\n")
	}

	line(Header)
	line("")

	if !d.Available {
		line("[General]")
		line("UpdatesDisabled = Updates are not available at this time")
		line("")
	}

	line("[%s]", d.Name)
	line("Name = %s", d.Name)
	line("Description = %s", d.Description)
	line("URL = %s", d.URL)
	line("Size = %d", d.Size)
	line("Version = %s", d.Version)
	line("ReleaseDate = %s", d.ReleaseDate.Format(ReleaseDateLayout))

	// file version check wins over registry key
	if d.FilePath != "" {
		line("FilePath = %s", d.FilePath)
	} else if d.RegistryKey != "" {
		line("RegistryKey = %s", d.RegistryKey)
	}

	if d.Flags != "" {
		line("Flags = %s", d.Flags)
	}

	// Replaces is not emitted

	if d.Depends != "" {
		line("Depends = %s", d.Depends)
	}

	if d.NextDeprecated != "" {
		line("NextDeprecated = %s", d.NextDeprecated)
	}

	return sb.String()
}
