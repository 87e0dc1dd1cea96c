package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `Name,Lineitem sku,Lineitem quantity,Lineitem name,Lineitem price,Lineitem discount
#1001,BOX,2,Bath Box,30.00,0
#1001,SOAP,1,Soap,5.00,0
#1002,,1,Lavender Candle,12.00,0
`

// fixtures writes a master workbook and an orders file into a temp dir.
func fixtures(t *testing.T) (dir, master, orders string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	dir = t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf, &workbook.Master{
		Products: core.RecordSet{
			Header: core.Columns(core.ProductFields),
			Rows:   [][]string{{"Soap", "SOAP", "1"}, {"Towel", "TOWEL", "1"}, {"Dish", "DISH", "1"}},
		},
		Bundles: core.RecordSet{
			Header: core.Columns(core.BundleFields),
			Rows:   [][]string{{"Bath Box", "BOX", "SOAP", "2"}, {"Bath Box", "BOX", "TOWEL", "1"}},
		},
		Additions: core.RecordSet{
			Header: core.Columns(core.AdditionFields),
			Rows:   [][]string{{"SOAP", "DISH", "FIXED", "1"}},
		},
		HasAdditions: true,
	}, false))

	master = filepath.Join(dir, "master.xlsx")
	require.NoError(t, os.WriteFile(master, buf.Bytes(), 0o600))
	orders = filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(orders, []byte(ordersCSV), 0o600))
	return dir, master, orders
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRun(t *testing.T) {
	dir, master, orders := fixtures(t)
	out := filepath.Join(dir, "processed.csv")

	_, stderr, err := execute(t, "run",
		"--master", master,
		"--orders", orders,
		"--out", out,
		"--generate-skus",
		"--add", "#1002:TOWEL:2",
		"--review",
		"--log-level", "error",
	)
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Lineitem sku,Lineitem quantity"))
	assert.True(t, strings.HasPrefix(lines[1], "#1001,SOAP,4,"), lines[1])
	assert.Contains(t, string(data), "LAVENDER_CANDLE")

	assert.Contains(t, stderr, "generated sku LAVENDER_CANDLE")
	assert.Contains(t, stderr, "3 rows in, 6 rows out (3 added)")
}

func TestRun_Stdout(t *testing.T) {
	_, master, orders := fixtures(t)

	stdout, _, err := execute(t, "run", "-m", master, "-i", orders, "-o", "-", "--empty-sets", "drop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Name,Lineitem sku,"))
	assert.NotContains(t, stdout, "BOX")
}

func TestRun_OrdersDir(t *testing.T) {
	dir, master, _ := fixtures(t)

	stdout, _, err := execute(t, "run", "--master", master, "--orders-dir", dir, "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "#1002")
}

func TestRun_Errors(t *testing.T) {
	dir, master, orders := fixtures(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad add", []string{"run", "-m", master, "-i", orders, "-o", "-", "--add", "#1001:SOAP"}, exitUsage},
		{"bad policy", []string{"run", "-m", master, "-i", orders, "-o", "-", "--empty-sets", "explode"}, exitUsage},
		{"unknown order", []string{"run", "-m", master, "-i", orders, "-o", "-", "--add", "#9:SOAP:1"}, exitValidation},
		{"missing master", []string{"run", "-m", filepath.Join(dir, "nope.xlsx"), "-i", orders, "-o", "-"}, exitValidation},
		{"strict review", []string{"run", "-m", master, "-i", orders, "-o", "-", "--review", "--strict"}, exitValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestTemplateCmd(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	out := filepath.Join(t.TempDir(), "template.xlsx")

	_, _, err := execute(t, "template", "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	m, err := workbook.Read(f)
	require.NoError(t, err)
	assert.True(t, m.HasAdditions)
}

func TestParseManualLines(t *testing.T) {
	got, err := parseManualLines([]string{"#1001:SOAP:2", "A:B:C:3"})
	require.NoError(t, err)
	assert.Equal(t, []manualLine{
		{orderID: "#1001", sku: "SOAP", quantity: 2},
		{orderID: "A:B", sku: "C", quantity: 3},
	}, got)

	for _, bad := range []string{"", "SOAP:1", ":SOAP:1", "#1:SOAP:0", "#1:SOAP:x"} {
		_, err := parseManualLines([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
	assert.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("down"))))
	assert.Nil(t, withCode(exitUsage, nil))
}
