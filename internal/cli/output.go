package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"Dormant/internal/models"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validOutput(format string) bool {
	switch format {
	case outputText, outputJSON, outputYAML:
		return true
	default:
		return false
	}
}

func writeSummary(w io.Writer, format string, summary models.PassSummary) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(summary)
	default:
		return writeTable(w, summary)
	}
}

func writeTable(w io.Writer, summary models.PassSummary) error {
	mode := "live"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Pass %s: %s %02d:00 (%s, %s)\n\n", summary.ID, summary.Day, summary.Hour, summary.TimeMode, mode)

	tableData := pterm.TableData{
		{"Kind", "Evaluated", "Started", "Stopped", "Tagged", "Invalid tags", "Failed"},
	}
	for _, k := range summary.Kinds {
		if k.Skipped {
			tableData = append(tableData, []string{k.Kind, "disabled", "", "", "", "", ""})
			continue
		}
		if k.Error != "" {
			tableData = append(tableData, []string{k.Kind, "list failed: " + k.Error, "", "", "", "", ""})
			continue
		}
		tableData = append(tableData, []string{
			k.Kind,
			strconv.Itoa(k.Evaluated),
			joinIDs(k.Started),
			joinIDs(k.Stopped),
			joinIDs(k.Provisioned),
			joinIDs(k.DecodeFailures),
			joinIDs(k.Failed),
		})
	}

	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	_, err = fmt.Fprintln(w, table)
	return err
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, "\n")
}
