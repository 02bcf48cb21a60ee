package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes instructions for obtaining a Behance API key
func ShowAPIKeyGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BEHANCE API KEY")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "behancesync reads the public Behance v2 API, which needs an API key")
	fmt.Fprintln(w, "(the \"client_id\" sent with every request).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Sign in at https://www.behance.net/dev")
	fmt.Fprintln(w, "  2. Register an application; any name and URL will do")
	fmt.Fprintln(w, "  3. Copy the API key shown for the application")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Then either run `behancesync auth login <username>` and paste the key,")
	fmt.Fprintf(w, "or export %s and %s.\n", EnvUsername, EnvAPIKey)
	fmt.Fprintln(w, rule)
}
