package ui

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"behancesync/pkg/auth"
	"behancesync/pkg/record"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderRecords writes one row per record: type, id, a display name and the
// content digest
func RenderRecords(w io.Writer, recs []*record.Record) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Type", "ID", "Name", "Digest"})
	for _, rec := range recs {
		t.AppendRow(table.Row{rec.Internal.Type, rec.ID, displayName(rec), rec.Internal.ContentDigest})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(recs)})
	t.Render()
}

// displayName picks a human label from a record's fields. Records read back
// from a store carry raw JSON values.
func displayName(rec *record.Record) string {
	if v, ok := rec.Fields["name"]; ok {
		var name string
		if decodeField(v, &name) == nil {
			return name
		}
	}
	if v, ok := rec.Fields["names"]; ok {
		var names map[string]any
		if decodeField(v, &names) == nil {
			if s, ok := names["displayName"].(string); ok && s != "" {
				return s
			}
			if s, ok := names["username"].(string); ok {
				return s
			}
		}
	}
	return ""
}

func decodeField(v any, dst any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dst)
}

// RenderAccounts writes stored accounts with their API keys masked
func RenderAccounts(w io.Writer, accounts []*auth.Account) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Username", "API Key", "Last Modified"})
	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		t.AppendRow(table.Row{masked.Username, masked.APIKey, masked.LastModified.Format(time.RFC3339)})
	}
	t.Render()
}
