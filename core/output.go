package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one metadata value as shown by the CLI.
type Row struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Raw      string `json:"raw,omitempty"`
	Category string `json:"category"`
	Editable bool   `json:"editable"`
	Visible  bool   `json:"visible"`
}

// Category groups kinds for display.
func Category(k Kind) string {
	switch {
	case k.IsIptc():
		return "IPTC"
	case k.IsGps():
		return "GPS"
	}
	switch k {
	case KindFileName, KindFileNameWithoutExt, KindFileSizeKb, KindDateAdded,
		KindDateFileCreated, KindDateFileCreatedUtc, KindDateFileLastModified, KindDateFileLastModifiedUtc:
		return "File"
	case KindDuration, KindBitRate, KindAudioFormat, KindVideoFormat, KindHtmlSource:
		return "Media"
	case KindCameraModel, KindEquipmentManufacturer, KindIsoSpeed, KindFNumber, KindExposureTime,
		KindExposureProgram, KindExposureCompensation, KindFocalLength, KindFlashMode, KindLensAperture,
		KindMeteringMode, KindLightSource, KindSubjectDistance:
		return "Camera"
	case KindWidth, KindHeight, KindDimensions, KindHorizontalResolution, KindVerticalResolution,
		KindOrientation, KindColorRepresentation:
		return "Image"
	}
	return "Description"
}

// Printer handles all display output for the CLI.
type Printer struct {
	JSON bool
	// Verbose adds raw values and items hidden by their definition.
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// PrintRows renders the metadata of one file.
func (p *Printer) PrintRows(file string, format FormatID, rows []Row) {
	if !p.Verbose {
		shown := rows[:0:0]
		for _, r := range rows {
			if r.Visible {
				shown = append(shown, r)
			}
		}
		rows = shown
	}
	if p.JSON {
		p.printJSON(file, format, rows)
		return
	}
	p.printText(file, format, rows)
}

func (p *Printer) printText(file string, format FormatID, rows []Row) {
	fmt.Fprintf(p.Writer, "File  : %s\n", file)
	fmt.Fprintf(p.Writer, "Format: %s\n", format)
	if len(rows) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintln(p.Writer)

	// Group by category
	groups := make(map[string][]Row)
	order := []string{}
	seen := map[string]bool{}
	for _, r := range rows {
		if !seen[r.Category] {
			seen[r.Category] = true
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}

	for _, cat := range order {
		fmt.Fprintf(p.Writer, "── %s ──\n", cat)
		for _, r := range groups[cat] {
			edit := ""
			if r.Editable {
				edit = " [editable]"
			}
			raw := ""
			if p.Verbose && r.Raw != "" && r.Raw != r.Value {
				raw = " (" + r.Raw + ")"
			}
			fmt.Fprintf(p.Writer, "  %-30s %s%s%s\n", r.Name+":", r.Value, raw, edit)
		}
		fmt.Fprintln(p.Writer)
	}
}

func (p *Printer) printJSON(file string, format FormatID, rows []Row) {
	type jsonOutput struct {
		FilePath string `json:"file"`
		Format   string `json:"format"`
		Items    []Row  `json:"items"`
	}
	out := jsonOutput{FilePath: file, Format: string(format), Items: rows}
	if out.Items == nil {
		out.Items = []Row{}
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

// ParseKV parses a "Key=Value" string.
func ParseKV(s string) (key, value string, ok bool) {
	idx := strings.Index(s, "=")
	if idx < 1 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}
