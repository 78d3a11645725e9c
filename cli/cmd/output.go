package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	yaml "go.yaml.in/yaml/v3"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/timeutil"
)

const (
	outputFormatTable = "table"
	outputFormatYAML  = "yaml"
)

func isInteractiveTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func validateOutputFormat(format string) error {
	switch format {
	case outputFormatTable, outputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (supported: table, yaml)", format)
	}
}

func renderResources(out io.Writer, format string, resources []resource.Resource) error {
	if format == outputFormatYAML {
		return renderYAML(out, resources)
	}
	if len(resources) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	switch resources[0].Type {
	case resource.TypeCard:
		renderCardTable(out, resources)
	case resource.TypeWorklog:
		renderWorklogTable(out, resources)
	case resource.TypeSprint:
		renderSprintTable(out, resources)
	}
	return nil
}

func renderYAML(out io.Writer, resources []resource.Resource) error {
	blocks := make([]map[string]any, 0, len(resources))
	for _, res := range resources {
		block := map[string]any{"id": res.ID}
		for key, value := range res.Fields {
			block[key] = value
		}
		blocks = append(blocks, block)
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(blocks); err != nil {
		return err
	}
	return encoder.Close()
}

func renderCardTable(out io.Writer, cards []resource.Resource) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "KEY\tSUMMARY\tSTATUS\tASSIGNEE\tSPRINT\tLEFT")
	for _, card := range cards {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			card.ID,
			truncate(fieldString(card, "summary"), 60),
			fieldString(card, "status"),
			fieldString(card, "assignee"),
			fieldString(card, "sprint"),
			fieldString(card, "timeleft"),
		)
	}
	writer.Flush()
}

func renderWorklogTable(out io.Writer, worklogs []resource.Resource) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCARD\tSPENT\tSTARTED\tAUTHOR\tCOMMENT")
	for _, worklog := range worklogs {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			worklog.ID,
			fieldString(worklog, "card"),
			fieldString(worklog, "timeSpent"),
			fieldString(worklog, "started"),
			fieldString(worklog, "author"),
			truncate(fieldString(worklog, "comment"), 40),
		)
	}
	writer.Flush()
}

func renderSprintTable(out io.Writer, sprints []resource.Resource) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tSTATE")
	for _, sprint := range sprints {
		fmt.Fprintf(writer, "%s\t%s\t%s\n",
			sprint.ID,
			fieldString(sprint, "name"),
			fieldString(sprint, "state"),
		)
	}
	writer.Flush()
}

// renderDrift prints a refresh delta in the added/removed/modified shape.
func renderDrift(out io.Writer, typ resource.Type, changes resource.Changes) {
	fmt.Fprintf(out, "%s drift:\n", typ)
	for _, id := range changes.Added {
		fmt.Fprintf(out, "  + %s\n", id)
	}
	for _, id := range changes.Removed {
		fmt.Fprintf(out, "  - %s\n", id)
	}
	for id, fields := range changes.Modified {
		for key, change := range fields {
			fmt.Fprintf(out, "  ~ %s %s: %v -> %v\n", id, key, change.Old, change.New)
		}
	}
}

func renderWorklogTotal(out io.Writer, worklogs []resource.Resource) {
	var total int64
	for _, worklog := range worklogs {
		seconds, err := timeutil.ParseWorklogSeconds(fieldString(worklog, "timeSpent"))
		if err != nil {
			continue
		}
		total += seconds
	}
	fmt.Fprintf(out, "total: %s\n", timeutil.FriendlySeconds(total))
}

func fieldString(res resource.Resource, key string) string {
	switch value := res.Fields[key].(type) {
	case string:
		return value
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", value)
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
