package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrNothingToExport is returned when the history is empty.
var ErrNothingToExport = errors.New("no history to export")

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

type exportRow struct {
	Round      int    `json:"round"`
	Multiplier string `json:"multiplier"`
}

// WriteCSV writes tokens as "round,multiplier" rows; rounds are numbered from 1.
func WriteCSV(w io.Writer, tokens []string) error {
	if len(tokens) == 0 {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"round", "multiplier"}); err != nil {
		return err
	}
	for i, tok := range tokens {
		if err := cw.Write([]string{strconv.Itoa(i + 1), tok}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes tokens as an indented array of {round, multiplier}.
func WriteJSON(w io.Writer, tokens []string) error {
	if len(tokens) == 0 {
		return ErrNothingToExport
	}
	rows := make([]exportRow, len(tokens))
	for i, tok := range tokens {
		rows[i] = exportRow{Round: i + 1, Multiplier: tok}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// ErrUnknownFormat is returned for an export format other than csv or json.
var ErrUnknownFormat = errors.New("unknown export format")

// Export writes tokens in the given format.
func Export(w io.Writer, format string, tokens []string) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, tokens)
	case FormatJSON:
		return WriteJSON(w, tokens)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
