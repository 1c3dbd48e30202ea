//go:build !integration

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const testWikiSegment = `<html><body><table class="wikitable">
<tr><th>Bild</th><th>Name</th><th>Gewässer</th><th>Baujahr</th><th>Lage</th></tr>
<tr><td></td><td>Oberbaumbrücke</td><td>Spree</td><td>1896</td><td>52.5020 13.4457</td></tr>
<tr><td></td><td>Elsenbrücke</td><td>Spree</td><td>2021</td><td>52.4935 13.4603</td></tr>
<tr><td></td><td>Rathausbrücke</td><td>Spree</td><td>2012</td><td>52.5166 13.4027</td></tr>
</table></body></html>`

const testFlatData = `{"bruecken": [
  {"id": 1, "bezirk": "Friedrichshain-Kreuzberg", "name": "Oberbaumbrücke", "lat": null, "lon": null},
  {"id": 2, "bezirk": "Treptow-Köpenick", "name": "Elsenbrücke nordwestlicher Teil", "lat": null, "lon": null},
  {"id": 3, "bezirk": "Steglitz-Zehlendorf", "name": "Glienicker Brücke", "lat": null, "lon": null}
]}`

const testDistrictData = `{"bezirke": [
  {"bezirk": "Mitte", "bruecken": [{"name": "Rathausbrücke", "lat": null, "lon": null}]}
], "erhaltungsmassnahmen": [
  {"name": "Unbekannter Steg", "bezirk": "Pankow"}
]}`

// setupWorkspace creates a temp working directory with data files and a
// config pointing the Wikipedia source at a test server.
func setupWorkspace(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Liste/A" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testWikiSegment)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	config := fmt.Sprintf(`
log:
  level: error
cache:
  enabled: false
fetch:
  max_retries: 1
wikipedia:
  base_url: %s/Liste
  segments: [A]
`, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bruecken_tagesspiegel.json"), []byte(testFlatData), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bruecken.json"), []byte(testDistrictData), 0o644))

	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		runDryRun = false
		runUnmatched = ""
		matchOutput = "text"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := setupWorkspace(t)

	out, err := execute(t, "run", "--dry-run=false", "--unmatched", "")
	require.NoError(t, err)

	assert.Contains(t, out, "  Already had coordinates: 0\n")
	assert.Contains(t, out, "  Newly matched:           3\n")
	assert.Contains(t, out, "  Unmatched:               2\n")
	assert.Contains(t, out, "  Total bridges:           5\n")
	assert.Regexp(t, `Wikipedia\s+3\n`, out)

	flat, err := os.ReadFile(filepath.Join(dir, "bruecken_tagesspiegel.json"))
	require.NoError(t, err)
	assert.InDelta(t, 52.5020, gjson.GetBytes(flat, "bruecken.0.lat").Float(), 1e-9)
	assert.Equal(t, "Wikipedia: Oberbaumbrücke", gjson.GetBytes(flat, "bruecken.0.coord_quelle").String())
	assert.Equal(t, "Wikipedia: Elsenbrücke", gjson.GetBytes(flat, "bruecken.1.coord_quelle").String())
	assert.Equal(t, gjson.Null, gjson.GetBytes(flat, "bruecken.2.lat").Type)

	districts, err := os.ReadFile(filepath.Join(dir, "bruecken.json"))
	require.NoError(t, err)
	assert.InDelta(t, 13.4027, gjson.GetBytes(districts, "bezirke.0.bruecken.0.lon").Float(), 1e-9)

	csv, err := os.ReadFile(filepath.Join(dir, "unmatched_bridges.csv"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"file,section,bezirk,name",
		`"bruecken_tagesspiegel.json","","Steglitz-Zehlendorf","Glienicker Brücke"`,
		`"bruecken.json","erhaltungsmassnahmen","Pankow","Unbekannter Steg"`,
	}, "\n"), string(csv))

	// A second run finds nothing left to do.
	out, err = execute(t, "run", "--dry-run=false", "--unmatched", "")
	require.NoError(t, err)
	assert.Contains(t, out, "  Already had coordinates: 3\n")
	assert.Contains(t, out, "  Newly matched:           0\n")
}

func TestRunCommand_DryRun(t *testing.T) {
	dir := setupWorkspace(t)

	out, err := execute(t, "run", "--dry-run", "--unmatched", "report.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "  Newly matched:           3\n")

	flat, err := os.ReadFile(filepath.Join(dir, "bruecken_tagesspiegel.json"))
	require.NoError(t, err)
	assert.Equal(t, testFlatData, string(flat))
	assert.FileExists(t, filepath.Join(dir, "report.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "unmatched_bridges.csv"))
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	dir := setupWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("wikipedia:\n  enabled: false\n"), 0o644))

	_, err := execute(t, "run", "--dry-run", "--unmatched", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of wikipedia.enabled or geoportal.enabled")
}

func TestIndexCommand(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "index")
	require.NoError(t, err)
	assert.Regexp(t, `1\s+Wikipedia\s+3\n`, out)
}

func TestMatchCommand_Text(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "match", "--output", "text", "Oberbaumbrücke", "Nirgendsbrücke")
	require.NoError(t, err)
	assert.Regexp(t, `Oberbaumbrücke\s+exact\s+Wikipedia\s+Oberbaumbrücke\s+52\.502000\s+13\.445700`, out)
	assert.Regexp(t, `Nirgendsbrücke\s+-`, out)
}

func TestMatchCommand_YAML(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "match", "-o", "yaml", "Elsenbrücke Südost", "Nirgendsbrücke")
	require.NoError(t, err)

	var got []matchResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	assert.True(t, got[0].Matched)
	assert.Equal(t, "elsenbruecke suedost", got[0].Key)
	assert.EqualValues(t, "suffix", got[0].Strategy)
	assert.Equal(t, "elsenbruecke", got[0].Matching)
	require.NotNil(t, got[0].Entry)
	assert.Equal(t, "Elsenbrücke", got[0].Entry.RawName)

	assert.False(t, got[1].Matched)
	assert.Nil(t, got[1].Entry)
}

func TestMatchCommand_UnknownOutput(t *testing.T) {
	setupWorkspace(t)

	_, err := execute(t, "match", "-o", "xml", "Oberbaumbrücke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestNormalizeCommand(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "normalize", "Cöpenicker Str.[3]", "Elsenbrücke ÜB NW")
	require.NoError(t, err)
	assert.Equal(t, "Cöpenicker Str.[3]\tkoepenicker strasse\nElsenbrücke ÜB NW\telsenbruecke ueb nordwest\n", out)
}
