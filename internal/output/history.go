package output

import (
	"bytes"
	"fmt"
	"time"

	"github.com/plannetic/ifaengine/internal/store"
)

func headlineLabel(kind store.RunKind) string {
	if kind == store.KindStress {
		return "avg resilience"
	}
	return "success rate"
}

func (c ConsoleFormatter) History(scenarioID string, runs []store.RunInfo) ([]byte, error) {
	var buf bytes.Buffer
	title(&buf, "RUN HISTORY: "+scenarioID)
	if len(runs) == 0 {
		buf.WriteString("  no stored runs\n")
		return buf.Bytes(), nil
	}

	t := newTable("Run", "Kind", "Created", "Headline")
	for _, r := range runs {
		t.Row(r.ID, string(r.Kind), r.CreatedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%s %s", headlineLabel(r.Kind), r.Headline.StringFixed(1)))
	}
	buf.WriteString(t.String())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (f JSONFormatter) History(scenarioID string, runs []store.RunInfo) ([]byte, error) {
	return f.encode(map[string]any{"scenarioId": scenarioID, "runs": runs})
}

func (c CSVFormatter) History(scenarioID string, runs []store.RunInfo) ([]byte, error) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID, scenarioID, string(r.Kind), r.CreatedAt.UTC().Format(time.RFC3339), r.Headline.String(),
		})
	}
	return writeCSV([]string{"RunID", "ScenarioID", "Kind", "CreatedAt", "Headline"}, rows)
}
