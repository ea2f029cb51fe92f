package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "RQL_QUERY,POLICY_NAME,POLICY_DESCRIPTION,POLICY_SEVERITY,POLICY_LABELS,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME,SAVED_SEARCH_DESCRIPTION\n"

func TestRead(t *testing.T) {
	input := header +
		`config from cloud.resource where api.name = 'aws-ec2',Open SG,Security groups open to the world,high,"pci, cis",aws,Open SG query,` + "\n" +
		`config from cloud.resource where api.name = 'gcp-storage', Bucket , ,medium,[],gcp,Bucket query,Bucket search` + "\n"

	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	require.NoError(t, first.Err)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Open SG", first.Record.PolicyName)
	assert.Equal(t, []string{"pci", "cis"}, first.Record.Labels())
	assert.Equal(t, "Security groups open to the world", first.Record.SearchDescription())

	second := entries[1]
	require.NoError(t, second.Err)
	assert.Equal(t, 3, second.Line)
	assert.Equal(t, "Bucket", second.Record.PolicyName)
	assert.Equal(t, "Bucket", second.Record.Description())
	assert.Empty(t, second.Record.Labels())
	assert.Equal(t, "Bucket search", second.Record.SearchDescription())
}

func TestRead_MalformedRowIsIsolated(t *testing.T) {
	input := header +
		"q1,p1,d1,low,,aws,s1,sd1\n" +
		"q2,p2,low\n" +
		"q3,p3,d3,high,,azure,s3,sd3\n"

	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.NoError(t, entries[0].Err)
	assert.ErrorIs(t, entries[1].Err, ErrParse)
	assert.Nil(t, entries[1].Record)
	assert.Equal(t, 3, entries[1].Line)
	require.NoError(t, entries[2].Err)
	assert.Equal(t, "p3", entries[2].Record.PolicyName)
}

func TestRead_BareQuotesInQuery(t *testing.T) {
	input := header +
		"q1,p1,d1,low,,aws,s1,sd1\n" +
		`config from cloud.resource where api.name = "aws-ec2-describe-instances",p2,d2,high,,aws,s2,sd2` + "\n" +
		"q3,p3,d3,high,,azure,s3,sd3\n"

	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		require.NoError(t, e.Err)
	}
	assert.Equal(t, `config from cloud.resource where api.name = "aws-ec2-describe-instances"`, entries[1].Record.Query)
	assert.Equal(t, "p2", entries[1].Record.PolicyName)
	assert.Equal(t, 3, entries[1].Line)
	assert.Equal(t, "p3", entries[2].Record.PolicyName)
}

func TestRead_MultilineFieldKeepsLineNumbers(t *testing.T) {
	input := header +
		"\"config from cloud.resource\nwhere api.name = 'x'\",p1,d1,low,,aws,s1,sd1\n" +
		"q2,p2,d2,low,,aws,s2,sd2\n"

	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Line)
	assert.Equal(t, 4, entries[1].Line)
	assert.Contains(t, entries[0].Record.Query, "\nwhere")
}

func TestRead_OptionalColumnsMayBeAbsent(t *testing.T) {
	input := "\ufeffRQL_QUERY, POLICY_NAME ,POLICY_SEVERITY,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME\n" +
		"q,p,low,aws,s\n"

	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, entries[0].Err)
	assert.Equal(t, "p", entries[0].Record.PolicyName)
	assert.NoError(t, entries[0].Record.Validate())
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	input := "RQL_QUERY,POLICY_NAME,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME\nq,p,aws,s\n"

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColumnSeverity)
}

func TestRead_RepeatedColumn(t *testing.T) {
	input := "RQL_QUERY,POLICY_NAME,POLICY_NAME,POLICY_SEVERITY,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME\n" +
		"q,name,desc,low,aws,s\n"

	entries, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "repeats column "+ColumnPolicyName)
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestRead_HeaderOnly(t *testing.T) {
	entries, err := Read(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"q,p,d,low,a,aws,s,sd\n"), 0600))

	entries, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"a"}, entries[0].Record.Labels())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
