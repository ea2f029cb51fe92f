package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/policyctl/pkg/audit"
	"github.com/doodlesbykumbi/policyctl/pkg/batch"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma/prismatest"
)

const csvHeader = "RQL_QUERY,POLICY_NAME,POLICY_DESCRIPTION,POLICY_SEVERITY,POLICY_LABELS,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME,SAVED_SEARCH_DESCRIPTION\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testOptions(srv *prismatest.Server, out *bytes.Buffer) applyOptions {
	return applyOptions{
		cfg: config.Config{
			APIURL:         srv.URL,
			AccessKey:      "ak",
			SecretKey:      "sk",
			Endpoints:      prisma.DefaultEndpoints(),
			RequestTimeout: config.DefaultRequestTimeout,
		},
		logger: zap.NewNop(),
		audit:  audit.Discard(),
		runID:  "run-1",
		output: "text",
		stdout: out,
	}
}

func TestApplyFile_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		rows     string
		setup    func(srv *prismatest.Server)
		wantCode int
		wantErr  bool
	}{
		{
			name:     "all succeed",
			rows:     "q1,P1,,high,,aws,S1,\n",
			wantCode: batch.ExitOK,
		},
		{
			name:     "duplicate is not a failure",
			rows:     "q1,P1,,high,,aws,S1,\n",
			setup:    func(srv *prismatest.Server) { srv.AddPolicy("P1") },
			wantCode: batch.ExitOK,
		},
		{
			name:     "record failure",
			rows:     "q1,P1,,,,aws,S1,\n",
			wantCode: batch.ExitFailures,
		},
		{
			name:     "login failure",
			rows:     "q1,P1,,high,,aws,S1,\n",
			setup:    func(srv *prismatest.Server) { srv.FailLogin(http.StatusUnauthorized) },
			wantCode: batch.ExitFatal,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := prismatest.NewServer(t)
			if tt.setup != nil {
				tt.setup(srv)
			}
			var out bytes.Buffer

			code, err := applyFile(context.Background(), writeCSV(t, csvHeader+tt.rows), testOptions(srv, &out))
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Contains(t, out.String(), "Attempted: 1")
			}
		})
	}
}

func TestApplyFile_MissingInput(t *testing.T) {
	srv := prismatest.NewServer(t)
	var out bytes.Buffer

	code, err := applyFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), testOptions(srv, &out))
	assert.Equal(t, batch.ExitFatal, code)
	assert.Error(t, err)
	assert.Empty(t, srv.Calls())
}

func TestApplyFile_MissingColumn(t *testing.T) {
	srv := prismatest.NewServer(t)
	var out bytes.Buffer

	path := writeCSV(t, "RQL_QUERY,POLICY_NAME\nq1,P1\n")
	code, err := applyFile(context.Background(), path, testOptions(srv, &out))
	assert.Equal(t, batch.ExitFatal, code)
	assert.Error(t, err)
	assert.Empty(t, srv.Calls())
}

func TestApplyFile_JSONOutput(t *testing.T) {
	srv := prismatest.NewServer(t)
	var out bytes.Buffer
	opts := testOptions(srv, &out)
	opts.output = "json"

	code, err := applyFile(context.Background(), writeCSV(t, csvHeader+"q1,P1,,high,,aws,S1,\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, batch.ExitOK, code)

	var summary batch.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, "policy-1", summary.Outcomes[0].PolicyID)
}

func TestApplyFile_SendsRunID(t *testing.T) {
	srv := prismatest.NewServer(t)
	var out bytes.Buffer

	_, err := applyFile(context.Background(), writeCSV(t, csvHeader+"q1,P1,,high,,aws,S1,\n"), testOptions(srv, &out))
	require.NoError(t, err)

	for _, c := range srv.Calls() {
		assert.Equal(t, "run-1", c.RequestID, c.Path)
	}
}

func TestShowConfiguration_RedactsKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://api.example.com\naccess_key: AKID\nsecret_key: s3cr3t\n"), 0600))
	t.Setenv("PRISMA_CLOUD_ACCESS_KEY", "")
	t.Setenv("PRISMA_CLOUD_SECRET_KEY", "")
	t.Setenv("PRISMA_CLOUD_API_URL", "")

	var out bytes.Buffer
	require.NoError(t, showConfiguration(&out, path, "text"))
	assert.NotContains(t, out.String(), "s3cr3t")
	assert.NotContains(t, out.String(), "AKID")
	assert.Contains(t, out.String(), "https://api.example.com")
	assert.NotContains(t, out.String(), "not usable")
}

func TestShowConfiguration_ReportsProblems(t *testing.T) {
	t.Setenv("PRISMA_CLOUD_CONFIG_PATH", t.TempDir())
	t.Setenv("PRISMA_CLOUD_ACCESS_KEY", "")
	t.Setenv("PRISMA_CLOUD_SECRET_KEY", "")
	t.Setenv("PRISMA_CLOUD_API_URL", "")

	var out bytes.Buffer
	require.NoError(t, showConfiguration(&out, "", "text"))
	assert.Contains(t, out.String(), "not usable")
	assert.Contains(t, out.String(), "PRISMA_CLOUD_SECRET_KEY is required")
}
