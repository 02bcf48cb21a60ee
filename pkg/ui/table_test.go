package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"behancesync/pkg/auth"
	"behancesync/pkg/record"
)

func TestRenderRecords(t *testing.T) {
	recs := []*record.Record{
		{
			ID:       "11",
			Internal: record.Internal{Type: record.TypeProject, ContentDigest: "abc"},
			Fields:   map[string]any{"name": "Poster"},
		},
		{
			ID:       "ada",
			Internal: record.Internal{Type: record.TypeUser, ContentDigest: "def"},
			Fields:   map[string]any{"names": json.RawMessage(`{"username":"ada","displayName":"Ada L"}`)},
		},
	}

	var buf bytes.Buffer
	RenderRecords(&buf, recs)
	out := buf.String()

	assert.Contains(t, out, "Poster")
	assert.Contains(t, out, "Ada L")
	assert.Contains(t, out, record.TypeUser)
	assert.Contains(t, out, "abc")
	assert.Contains(t, strings.ToUpper(out), "TOTAL")
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{"plain string", map[string]any{"name": "Poster"}, "Poster"},
		{"raw string", map[string]any{"name": json.RawMessage(`"Raw"`)}, "Raw"},
		{"username only", map[string]any{"names": map[string]any{"username": "ada"}}, "ada"},
		{"none", map[string]any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(&record.Record{Fields: tt.fields}))
		})
	}
}

func TestRenderAccountsMasksKeys(t *testing.T) {
	var buf bytes.Buffer
	RenderAccounts(&buf, []*auth.Account{
		{Username: "ada", APIKey: "abcd1234efgh5678", LastModified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	})
	out := buf.String()

	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "abcd...5678")
	assert.NotContains(t, out, "abcd1234efgh5678")
	assert.Contains(t, out, "2024-01-02T03:04:05Z")
}

func TestQuietModeSuppressesOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	SetNoColor(true)
	t.Cleanup(func() {
		SetQuietMode(false)
		SetNoColor(false)
	})

	PrintSuccess("done")
	assert.Equal(t, "[OK] done\n", stdout.String())

	SetQuietMode(true)
	PrintInfo("Label", "value")
	PrintError("boom", "detail")
	assert.Equal(t, "[OK] done\n", stdout.String())
	assert.Contains(t, stderr.String(), "[ERROR] boom")
	assert.Contains(t, stderr.String(), "detail")
}

func TestPrintBanner(t *testing.T) {
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	SetNoColor(true)
	t.Cleanup(func() {
		SetQuietMode(false)
		SetNoColor(false)
	})

	PrintBanner()
	assert.Equal(t, Banner, stdout.String())

	stdout.Reset()
	SetQuietMode(true)
	PrintBanner()
	assert.Empty(t, stdout.String())
}
