package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/BioHazard786/screenrelay/internal/probe"
	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// OutputFormat selects how the rooms listing is rendered.
type OutputFormat string

const (
	OutputStyled   OutputFormat = "styled"
	OutputPlain    OutputFormat = "plain"
	OutputMarkdown OutputFormat = "markdown"
	OutputCSV      OutputFormat = "csv"
)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputStyled, OutputPlain, OutputMarkdown, OutputCSV:
		return f, nil
	case "":
		return OutputStyled, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want styled, plain, markdown or csv)", s)
	}
}

var roomHeaders = []string{"#", "Room", "Viewers", "Host", "Age"}

func roomRows(rooms []signaling.RoomInfo, now time.Time) [][]string {
	rows := make([][]string, 0, len(rooms))
	for i, r := range rooms {
		host := "connected"
		if !r.HostConnected {
			host = "gone"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.RoomID,
			fmt.Sprintf("%d", r.Viewers),
			host,
			FormatAge(now.Sub(r.CreatedAt)),
		})
	}
	return rows
}

// RoomsView renders the listing in the requested format.
func RoomsView(rooms []signaling.RoomInfo, format OutputFormat, now time.Time) string {
	if format == OutputStyled {
		if len(rooms) == 0 {
			return MutedStyle.Render("No live rooms")
		}
		return styledTable(roomHeaders, roomRows(rooms, now))
	}

	tw := prettytable.NewWriter()
	header := prettytable.Row{}
	for _, h := range roomHeaders {
		header = append(header, h)
	}
	tw.AppendHeader(header)
	for _, row := range roomRows(rooms, now) {
		r := prettytable.Row{}
		for _, cell := range row {
			r = append(r, cell)
		}
		tw.AppendRow(r)
	}

	switch format {
	case OutputMarkdown:
		return tw.RenderMarkdown()
	case OutputCSV:
		return tw.RenderCSV()
	default:
		tw.SetStyle(prettytable.StyleLight)
		return tw.Render()
	}
}

// ProbeReportView renders the per-step timings of a probe run.
func ProbeReportView(report *probe.Report) string {
	rows := make([][]string, 0, len(report.Steps)+1)
	for i, s := range report.Steps {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), s.Name, FormatLatency(s.Elapsed)})
	}
	rows = append(rows, []string{"", "total", FormatLatency(report.Total)})
	return styledTable([]string{"#", "Step", "Latency"}, rows)
}

func styledTable(headers []string, rows [][]string) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// FormatAge renders a room age at second granularity.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}

// FormatLatency renders a step duration at millisecond granularity.
func FormatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	return d.Round(time.Millisecond).String()
}
