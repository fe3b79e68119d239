package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/importer"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []domain.LineRecord {
	return []domain.LineRecord{
		testutil.NewTestRecord("1", testutil.WithLabel("Opex")),
		testutil.NewTestRecord("1.2", testutil.WithParent("1"), testutil.WithLabel("Rent"),
			testutil.WithPlanned("2025-01", "800"),
			testutil.WithDimension("Entity", domain.MultiValue("HQ", "Branch"))),
		testutil.NewTestRecord("1.1", testutil.WithParent("1"), testutil.WithLabel("Fuel"),
			testutil.WithPlanned("2025-02", "50.5"),
			testutil.WithDimension("Entity", domain.MultiValue("HQ"))),
	}
}

func TestBuild_RowsSortedByItemMonthCode(t *testing.T) {
	b := testutil.NewTestBudget("Main", testutil.WithMonths("2025-01", "2025-02"), testutil.WithDimensions("Entity"))

	e, err := Build(b, sampleRecords())
	require.NoError(t, err)
	rows := e.Document.Data
	require.Len(t, rows, 6)

	var got []string
	for _, r := range rows {
		got = append(got, r.Item+"@"+r.Month)
	}
	assert.Equal(t, []string{
		"Fuel@2025-01-01", "Fuel@2025-02-01",
		"Opex@2025-01-01", "Opex@2025-02-01",
		"Rent@2025-01-01", "Rent@2025-02-01",
	}, got)

	assert.True(t, rows[1].Planned.Equal(testutil.Dec("50.5")))
	assert.True(t, rows[0].Planned.IsZero())
	assert.Equal(t, "Branch;HQ", rows[4].Dimensions["Entity"])
	assert.Empty(t, rows[4].Project, "company budgets leave Project blank")

	meta := e.Document.Meta
	assert.Equal(t, "2025-01-01", meta.StartMonth)
	assert.Equal(t, "2025-02-01", meta.EndMonth)
	assert.Equal(t, 2, meta.MonthsCount)
	assert.Equal(t, []string{"Entity"}, meta.ExtraColumns)
}

func TestBuild_ProjectBudgetFillsProject(t *testing.T) {
	b := testutil.NewTestBudget("Tower", testutil.WithProject("Tower A"))
	e, err := Build(b, sampleRecords())
	require.NoError(t, err)
	for _, r := range e.Document.Data {
		assert.Equal(t, "Tower A", r.Project)
		assert.Equal(t, "Project", r.BudgetType)
	}
}

func TestBuild_RefusedWhileTreeInvalid(t *testing.T) {
	b := testutil.NewTestBudget("Main")
	records := []domain.LineRecord{
		testutil.NewTestRecord("A", testutil.WithParent("B")),
		testutil.NewTestRecord("B", testutil.WithParent("A")),
	}
	_, err := Build(b, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestBuild_DimensionsFoundOnlyOnRecordsAreAppended(t *testing.T) {
	b := testutil.NewTestBudget("Main")
	e, err := Build(b, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, []string{"Entity"}, e.Dimensions)
}

func TestWriteCSV_RoundTripsThroughImporter(t *testing.T) {
	b := testutil.NewTestBudget("Main", testutil.WithDimensions("Entity"))
	e, err := Build(b, sampleRecords())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, e))
	assert.True(t, strings.HasPrefix(buf.String(),
		"Budget,Version,BudgetType,Project,Currency,Code,ParentCode,Month,Item,Planned,Entity\n"))

	tbl, err := importer.ReadCSV(&buf)
	require.NoError(t, err)
	lines, errs := importer.ParseLong(tbl, importer.Options{MultiDimensions: []string{"Entity"}})
	require.Empty(t, errs)
	require.Len(t, lines.Records, 3)
	require.NotNil(t, lines.Meta)
	assert.Equal(t, "Main", lines.Meta.BudgetName)

	byCode := map[string]domain.LineRecord{}
	for _, r := range lines.Records {
		byCode[r.Code] = r
	}
	assert.True(t, byCode["1.2"].Value("2025-01", domain.MetricPlanned).Equal(testutil.Dec("800")))
	assert.Equal(t, []string{"Branch", "HQ"}, byCode["1.2"].Dimensions["Entity"].Values())
}

func TestWriteJSON_Document(t *testing.T) {
	b := testutil.NewTestBudget("Main", testutil.WithDimensions("Entity"))
	e, err := Build(b, sampleRecords())
	require.NoError(t, err)

	out, err := Encode(e, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"meta\": {")

	var decoded struct {
		Meta map[string]any   `json:"meta"`
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Main", decoded.Meta["budget_name"])
	require.Len(t, decoded.Data, len(e.Document.Data))
	assert.Equal(t, 50.5, decoded.Data[1]["Planned"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestSinkFactory_S3(t *testing.T) {
	fake := &fakeS3{}
	var gotCfg S3Config
	factory := SinkFactory{
		S3: S3Config{Region: "eu-central-1"},
		NewClient: func(_ context.Context, cfg S3Config) (S3PutObjectAPI, error) {
			gotCfg = cfg
			return fake, nil
		},
	}

	sink, err := factory.Open(context.Background(), "s3://budgets/exports/main.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://budgets/exports/main.csv", sink.String())
	require.NoError(t, sink.Put(context.Background(), []byte("a,b\n"), FormatCSV.ContentType()))

	assert.Equal(t, "eu-central-1", gotCfg.Region)
	assert.Equal(t, "budgets", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "exports/main.csv", aws.ToString(fake.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "a,b\n", string(fake.body))
}

func TestS3Sink_WrapsUploadError(t *testing.T) {
	boom := errors.New("access denied")
	sink := S3Sink{Client: &fakeS3{err: boom}, Bucket: "b", Key: "k"}
	err := sink.Put(context.Background(), []byte("x"), "text/csv")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3://b/k")
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://my-bucket/a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "a/b.json", key)

	for _, bad := range []string{"s3://bucket", "s3:///key", "https://bucket/key"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestSinkFactory_FileAndStdout(t *testing.T) {
	var stdout bytes.Buffer
	factory := SinkFactory{Stdout: &stdout}

	sink, err := factory.Open(context.Background(), "-")
	require.NoError(t, err)
	require.NoError(t, sink.Put(context.Background(), []byte("hello"), "text/csv"))
	assert.Equal(t, "hello", stdout.String())

	path := filepath.Join(t.TempDir(), "out", "budget.csv")
	sink, err = factory.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, sink.Put(context.Background(), []byte("x"), "text/csv"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
