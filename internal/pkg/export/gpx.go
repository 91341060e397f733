// Package export renders generated routes into portable formats:
// GPX 1.1 tracks for watches and fitness apps, and Google Maps
// navigation URLs for phones.
package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
)

const gpxCreator = "routepainter"

// GPXOptions controls GPX generation.
type GPXOptions struct {
	Name        string
	Description string
	// Now is the track start time; zero means time.Now().
	Now time.Time
}

// GPX renders a route as a GPX 1.1 track. Track points get synthetic
// timestamps at one second intervals so importers that require time
// data accept the file.
func GPX(route []domain.LatLng, opts GPXOptions) (string, error) {
	if err := ValidateRouteForExport(route); err != nil {
		return "", err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gpx version="1.1"` + "\n")
	fmt.Fprintf(&b, "     creator=%q\n", gpxCreator)
	b.WriteString(`     xmlns="http://www.topografix.com/GPX/1/1"` + "\n")
	b.WriteString(`     xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` + "\n")
	b.WriteString(`     xsi:schemaLocation="http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/1/1/gpx.xsd">` + "\n")

	b.WriteString("  <metadata>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", escapeXML(opts.Name))
	if opts.Description != "" {
		fmt.Fprintf(&b, "    <desc>%s</desc>\n", escapeXML(opts.Description))
	}
	fmt.Fprintf(&b, "    <time>%s</time>\n", now.Format(time.RFC3339))
	b.WriteString("  </metadata>\n")

	b.WriteString("  <trk>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", escapeXML(opts.Name))
	if opts.Description != "" {
		fmt.Fprintf(&b, "    <desc>%s</desc>\n", escapeXML(opts.Description))
	}
	b.WriteString("    <type>running</type>\n")
	b.WriteString("    <trkseg>\n")
	for i, p := range route {
		ts := now.Add(time.Duration(i) * time.Second)
		fmt.Fprintf(&b, "      <trkpt lat=\"%.6f\" lon=\"%.6f\">\n", p.Lat, p.Lng)
		b.WriteString("        <ele>0</ele>\n")
		fmt.Fprintf(&b, "        <time>%s</time>\n", ts.Format(time.RFC3339))
		b.WriteString("      </trkpt>\n")
	}
	b.WriteString("    </trkseg>\n")
	b.WriteString("  </trk>\n")
	b.WriteString("</gpx>\n")

	return b.String(), nil
}

// RouteDescription builds the human-readable summary embedded in
// exported files.
func RouteDescription(distance float64, shape string, date time.Time) string {
	return fmt.Sprintf("Running route shaped like %q - %.1f km. Created on %s.",
		shape, distance/1000, date.Format("2006-01-02"))
}

// FileName turns a route name into a safe download filename, without
// extension.
func FileName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "route"
	}
	return out
}

// ValidateRouteForExport rejects routes that cannot be exported: too
// few points or coordinates outside valid ranges.
func ValidateRouteForExport(route []domain.LatLng) error {
	if len(route) == 0 {
		return fmt.Errorf("%w: no route to export", domain.ErrInvalidInput)
	}
	if len(route) < 2 {
		return fmt.Errorf("%w: route must have at least 2 points", domain.ErrInvalidInput)
	}
	for _, p := range route {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) ||
			p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return fmt.Errorf("%w: route contains invalid coordinates", domain.ErrInvalidInput)
		}
	}
	return nil
}

func escapeXML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(text)
}
