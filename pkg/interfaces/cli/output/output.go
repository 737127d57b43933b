package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
)

// Generate writes a command summary in the requested format
func Generate(w io.Writer, format string, summary any) error {
	switch format {
	case "text":
		return generateTextOutput(w, summary)
	case "json":
		return generateJSONOutput(w, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func generateJSONOutput(w io.Writer, summary any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// generateTextOutput creates human-readable text output
func generateTextOutput(w io.Writer, summary any) error {
	var out strings.Builder

	switch s := summary.(type) {
	case *dto.RunSummary:
		out.WriteString("📊 Inventory Forecast\n")
		out.WriteString("=====================\n\n")
		fmt.Fprintf(&out, "Run ID:        %s\n", s.RunID)
		fmt.Fprintf(&out, "Today:         %s\n", dates.Format(s.Today))
		fmt.Fprintf(&out, "Horizon:       %d days\n", s.HorizonDays)
		fmt.Fprintf(&out, "Policy:        %s\n", s.Policy)
		fmt.Fprintf(&out, "Items:         %d\n", s.ItemCount)
		fmt.Fprintf(&out, "Detail rows:   %d\n", s.DetailRows)
		fmt.Fprintf(&out, "Shortage rows: %d\n", s.ShortageRows)
		fmt.Fprintf(&out, "Duration:      %v\n", s.Duration)
		if s.ShortageRows > 0 {
			fmt.Fprintf(&out, "\n⚠️  %d item-days end with negative inventory\n", s.ShortageRows)
		}

	case *dto.SyncSummary:
		fmt.Fprintf(&out, "🔄 Synced %s\n", s.Table)
		fmt.Fprintf(&out, "  Updated: %d\n", s.Updated)
		fmt.Fprintf(&out, "  Added:   %d\n", s.Added)
		fmt.Fprintf(&out, "  Skipped: %d\n", s.Skipped)

	case *dto.PrepareSummary:
		fmt.Fprintf(&out, "🧁 Prepared %s\n", s.Table)
		fmt.Fprintf(&out, "  Rows:            %d\n", s.Rows)
		fmt.Fprintf(&out, "  Pieces computed: %d\n", s.PiecesComputed)
		fmt.Fprintf(&out, "  Names filled:    %d\n", s.NamesFilled)
		fmt.Fprintf(&out, "  Skipped:         %d\n", s.Skipped)
		fmt.Fprintf(&out, "  Errors:          %d\n", s.Errors)

	case *dto.InitSummary:
		out.WriteString("📋 Tables\n")
		for _, name := range s.Created {
			fmt.Fprintf(&out, "  created:  %s\n", name)
		}
		for _, name := range s.Repaired {
			fmt.Fprintf(&out, "  repaired: %s\n", name)
		}
		if len(s.Created) == 0 && len(s.Repaired) == 0 {
			out.WriteString("  all tables present\n")
		}

	default:
		return fmt.Errorf("unsupported summary type %T", summary)
	}

	_, err := io.WriteString(w, out.String())
	return err
}
