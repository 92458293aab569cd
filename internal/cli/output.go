package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// emit prints v as JSON under --json, else the rendered text.
func (a *App) emit(w io.Writer, v any, render func() string) error {
	if a.JSON {
		return printJSON(w, v)
	}
	_, err := fmt.Fprint(w, render())
	return err
}
