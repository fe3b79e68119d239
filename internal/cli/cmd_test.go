package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/alexanderramin/budgetree/internal/service"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(db)

	return &App{
		Budgets: service.NewBudgetService(
			repository.NewSQLiteBudgetRepo(db), repository.NewSQLiteLineRepo(db), uow, nil),
		Settlement: service.NewSettlementService(
			repository.NewSQLiteInvoiceRepo(db), repository.NewSQLitePaymentRepo(db), uow, nil),
		Needs: service.NewNeedService(
			repository.NewSQLiteNeedRepo(db), repository.NewSQLiteLinkRepo(db), uow, nil),
		LogLevel: new(slog.LevelVar),
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	return executeCmdWithInput(t, app, "", args...)
}

func executeCmdWithInput(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

var (
	ansiRE    = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	bracketID = regexp.MustCompile(`\[([0-9a-f-]{36})\]`)
)

func plain(s string) string { return ansiRE.ReplaceAllString(s, "") }

func createdID(t *testing.T, out string) string {
	t.Helper()
	m := bracketID.FindStringSubmatch(plain(out))
	require.Len(t, m, 2, "no id in output: %s", out)
	return m[1]
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const opexCSV = `Code,ParentCode,Item,2025-01,2025-02,Actual:2025-01
1,,Opex,,,
1.1,1,Salaries,100,100,90
1.2,1,Rent,200,,210
2,,Capex,50,,
`

func importOpex(t *testing.T, app *App) {
	t.Helper()
	out, err := executeCmd(t, app, "budget", "import", writeFile(t, "opex.csv", opexCSV))
	require.NoError(t, err, out)
}

// --- budget ---

func TestBudgetImport_PrintsReport(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "budget", "import", writeFile(t, "opex.csv", opexCSV),
		"--version", "v2", "--project", "Tower A")
	require.NoError(t, err)

	out = plain(out)
	assert.Contains(t, out, "Created budget opex@v2")
	assert.Contains(t, out, "4 lines")
	assert.Contains(t, out, "tree is valid")

	out, err = executeCmd(t, app, "budget", "import", writeFile(t, "opex.csv", opexCSV), "--version", "v2")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Updated budget opex@v2")
}

func TestBudgetImport_RefusesBadAmounts(t *testing.T) {
	app := testApp(t)
	bad := "Code,ParentCode,Item,2025-01\n1,,Opex,abc\n"

	_, err := executeCmd(t, app, "budget", "import", writeFile(t, "bad.csv", bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import validation failed")

	out, err := executeCmd(t, app, "budget", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "No budgets found")
}

func TestBudgetList(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	out, err := executeCmd(t, app, "budget", "list")
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "opex")
	assert.Contains(t, out, "2025-01 → 2025-02")
}

func TestBudgetTree(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	out, err := executeCmd(t, app, "budget", "tree", "opex")
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "OPEX@V1")
	assert.Contains(t, out, "├─ 1.1 Salaries")
	assert.Contains(t, out, "└─ 1.2 Rent")
	assert.Contains(t, out, "P 400.00 · A 300.00")

	out, err = executeCmd(t, app, "budget", "tree", "opex", "--bucket", "2025-02")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "P 100.00 · A 0.00")

	_, err = executeCmd(t, app, "budget", "tree", "opex", "--bucket", "Feb")
	assert.Error(t, err)
}

func TestBudgetRollup(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	out, err := executeCmd(t, app, "budget", "rollup", "opex", "--metric", "actual")
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "ACTUAL")
	assert.Contains(t, out, "300.00")

	out, err = executeCmd(t, app, "budget", "rollup", "opex", "--metric", "both", "--band", "3")
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "VARIANCE")
	assert.Contains(t, out, "Under-Budget (-33.33%)")
	assert.Contains(t, out, "Lines out of budget")
	assert.Contains(t, out, "+5.00%")

	out, err = executeCmd(t, app, "budget", "rollup", "opex", "--metric", "both", "--band", "40")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "In-Budget (-33.33%)")

	_, err = executeCmd(t, app, "budget", "rollup", "opex", "--metric", "both", "--band", "-1")
	assert.Error(t, err)

	_, err = executeCmd(t, app, "budget", "rollup", "opex", "--metric", "forecast")
	assert.Error(t, err)
}

func TestBudgetValidate_ReportsTreeErrors(t *testing.T) {
	app := testApp(t)
	cyclic := "Code,ParentCode,Item,2025-01\nA,B,Alpha,1\nB,A,Beta,2\n"
	out, err := executeCmd(t, app, "budget", "import", writeFile(t, "cyclic.csv", cyclic))
	require.NoError(t, err)
	assert.Contains(t, plain(out), "tree errors")

	out, err = executeCmd(t, app, "budget", "validate", "cyclic")
	require.Error(t, err)
	assert.Contains(t, plain(out), "cycle detected")

	_, err = executeCmd(t, app, "budget", "rollup", "cyclic")
	assert.Error(t, err)
}

func TestBudgetExport_JSONToStdout(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	out, err := executeCmd(t, app, "budget", "export", "opex", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Meta struct {
			BudgetName string `json:"budget_name"`
		} `json:"meta"`
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "opex", doc.Meta.BudgetName)
	assert.NotEmpty(t, doc.Data)
}

func TestBudgetExport_CSVToFile(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	path := filepath.Join(t.TempDir(), "opex-long.csv")
	out, err := executeCmd(t, app, "budget", "export", "opex", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported opex to "+path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Budget,Version,"), string(body))
	assert.Contains(t, string(body), "2025-01")
}

func TestBudgetRemove_RequiresConfirmation(t *testing.T) {
	app := testApp(t)
	importOpex(t, app)

	_, err := executeCmd(t, app, "budget", "remove", "opex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without --yes")

	app.IsInteractive = func() bool { return true }
	out, err := executeCmdWithInput(t, app, "n\n", "budget", "remove", "opex")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = executeCmdWithInput(t, app, "y\n", "budget", "remove", "opex")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed budget opex@v1")

	_, err = executeCmd(t, app, "budget", "remove", "opex", "--yes")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// --- settle ---

const invoicesCSV = `InvoiceNo,Counterparty,Date,DueDate,Amount
A,Acme,2024-12-01,2025-01-01,100
B,Acme,2025-01-01,2025-02-01,50
`

const receiptsCSV = `PaymentNo,Counterparty,Date,Amount,Method,Status
R1,Acme,2025-01-10,120,transfer,Collected
R2,Acme,2025-01-20,500,cheque,Under Collection
`

func TestSettleRun(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "settle", "invoices", "import", writeFile(t, "inv.csv", invoicesCSV), "--direction", "receivable")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Imported 2 receivable invoices")

	out, err = executeCmd(t, app, "settle", "payments", "import", writeFile(t, "pay.csv", receiptsCSV), "--direction", "receivable")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Imported 2 receivable payments")

	out, err = executeCmd(t, app, "settle", "run")
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, " 40%")
	assert.Contains(t, out, "skipped R2")
	assert.Contains(t, out, "Outstanding: 30.00")
}

func TestSettleImport_RequiresDirection(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "settle", "invoices", "import", writeFile(t, "inv.csv", invoicesCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")

	_, err = executeCmd(t, app, "settle", "run", "--direction", "sideways")
	assert.Error(t, err)
}

// --- need ---

func TestNeedWorkflow(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "need", "create", "--title", "Steel for block B", "--project", "P-7")
	require.NoError(t, err)
	requestID := createdID(t, out)

	out, err = executeCmd(t, app, "need", "add-line", "--request", requestID,
		"--resource", "rebar", "--qty", "10", "--unit", "ton")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 10 ton of rebar")
	lineID := createdID(t, out)

	out, err = executeCmd(t, app, "need", "link", "--line", lineID, "--qty", "6", "--boq", "BOQ-1", "--item", "I-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Linked 6 to BOQ-1/I-2")

	_, err = executeCmd(t, app, "need", "link", "--line", lineID, "--qty", "4.5", "--boq", "BOQ-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds requested 10")

	out, err = executeCmd(t, app, "need", "show", "--request", requestID)
	require.NoError(t, err)
	out = plain(out)
	assert.Contains(t, out, "STEEL FOR BLOCK B")
	assert.Contains(t, out, "P-7")
	assert.Contains(t, out, " 60%")

	out, err = executeCmd(t, app, "need", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Steel for block B")
}

func TestNeedAddLine_InvalidQuantity(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "need", "create", "--title", "Cement")
	require.NoError(t, err)
	requestID := createdID(t, out)

	_, err = executeCmd(t, app, "need", "add-line", "--request", requestID, "--resource", "cement", "--qty", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity")
}

func TestNeedLink_UnknownLine(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "need", "link", "--line", "missing", "--qty", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source line "missing" not found`)
}

// --- root ---

func TestRootCmd_VerboseLowersLogLevel(t *testing.T) {
	app := testApp(t)
	app.LogLevel.Set(slog.LevelWarn)

	_, err := executeCmd(t, app, "budget", "list", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, app.LogLevel.Level())
}
