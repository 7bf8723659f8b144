package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/wayfind/internal/model"
)

// printResponse writes resp for a human, or as indented JSON.
func printResponse(w io.Writer, resp model.ConversationalResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err := fmt.Fprintf(w, "%s\n", resp.Message)
	return err
}
