package output

import (
	"github.com/goccy/go-json"
	"github.com/plannetic/ifaengine/internal/domain"
)

// JSONFormatter renders results as JSON documents.
type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) Name() string { return "json" }

func (f JSONFormatter) Projection(r ProjectionReport) ([]byte, error) { return f.encode(r) }

func (f JSONFormatter) Simulation(r SimulationReport) ([]byte, error) { return f.encode(r) }

func (f JSONFormatter) Stress(r StressReport) ([]byte, error) { return f.encode(r) }

func (f JSONFormatter) Validation(r domain.ValidationResult) ([]byte, error) { return f.encode(r) }

func (f JSONFormatter) Catalog(entries []domain.StressScenario) ([]byte, error) {
	return f.encode(map[string]any{"scenarios": entries})
}

// Value encodes any value with the formatter's settings.
func (f JSONFormatter) Value(v any) ([]byte, error) { return f.encode(v) }

func (f JSONFormatter) encode(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
