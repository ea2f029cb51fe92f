package batch_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/policyctl/pkg/audit"
	"github.com/doodlesbykumbi/policyctl/pkg/batch"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma/prismatest"
	"github.com/doodlesbykumbi/policyctl/pkg/record"
)

const header = "RQL_QUERY,POLICY_NAME,POLICY_DESCRIPTION,POLICY_SEVERITY,POLICY_LABELS,POLICY_CLOUD_TYPE,SAVED_SEARCH_NAME,SAVED_SEARCH_DESCRIPTION\n"

func entries(t *testing.T, rows ...string) []record.Entry {
	t.Helper()
	out, err := record.Read(strings.NewReader(header + strings.Join(rows, "\n") + "\n"))
	require.NoError(t, err)
	return out
}

func testConfig(srv *prismatest.Server) config.Config {
	return config.Config{
		APIURL:         srv.URL,
		AccessKey:      "ak",
		SecretKey:      "sk",
		Endpoints:      prisma.DefaultEndpoints(),
		PolicyType:     prisma.PolicyTypeConfig,
		SearchStrategy: config.SearchStrategySeparate,
		RequestTimeout: config.DefaultRequestTimeout,
	}
}

func newDriver(srv *prismatest.Server, cfg config.Config, opts batch.Options) *batch.Driver {
	client := prisma.NewClient(cfg.ClientOptions())
	return batch.NewDriver(client, cfg, opts)
}

func run(t *testing.T, srv *prismatest.Server, cfg config.Config, in []record.Entry) *batch.Summary {
	t.Helper()
	summary, err := newDriver(srv, cfg, batch.Options{}).Run(context.Background(), in)
	require.NoError(t, err)
	return summary
}

func TestRun_IsolatesRecordFailures(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.FailSearch("q3", http.StatusInternalServerError)

	summary := run(t, srv, testConfig(srv), entries(t,
		"q1,Policy 1,,high,\"a, b ,c\",aws,Search 1,",
		"q2,Policy 2,,,,aws,Search 2,",
		"q3,Policy 3,,low,,aws,Search 3,",
	))

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, batch.ExitFailures, summary.ExitCode())

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, batch.ResultSucceeded, summary.Outcomes[0].Result)
	assert.Equal(t, batch.StagePolicyCreation, summary.Outcomes[0].Stage)
	assert.Equal(t, batch.ResultFailed, summary.Outcomes[1].Result)
	assert.Equal(t, batch.StageMissingFields, summary.Outcomes[1].Stage)
	assert.Contains(t, summary.Outcomes[1].Error, record.ColumnSeverity)
	assert.Equal(t, batch.ResultFailed, summary.Outcomes[2].Result)
	assert.Equal(t, batch.StageSearchResolution, summary.Outcomes[2].Stage)

	endpoints := prisma.DefaultEndpoints()
	var paths []string
	for _, c := range srv.Calls() {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{
		endpoints.Login,
		endpoints.ConfigSearch,
		endpoints.SearchHistory + "/search-1",
		endpoints.Policy,
		endpoints.ConfigSearch,
	}, paths)

	searches := srv.CallsTo(endpoints.ConfigSearch)
	assert.Equal(t, "q1", searches[0].Body["query"])
	assert.Equal(t, "q3", searches[1].Body["query"])

	policy := srv.CallsTo(endpoints.Policy)[0].Body
	assert.Equal(t, []interface{}{"a", "b", "c"}, policy["labels"])
	assert.Equal(t, "Policy 1", policy["description"])
}

func TestRun_SessionReused(t *testing.T) {
	srv := prismatest.NewServer(t)

	run(t, srv, testConfig(srv), entries(t,
		"q1,P1,,high,,aws,S1,",
		"q2,P2,,high,,aws,S2,",
	))

	assert.Len(t, srv.CallsTo("/login"), 1)
	for _, c := range srv.Calls()[1:] {
		assert.Equal(t, srv.Token, c.Auth, c.Path)
	}
}

func TestRun_AuthenticationFailureProcessesNothing(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.FailLogin(http.StatusUnauthorized)

	var auditBuf bytes.Buffer
	auditLogger := audit.NewLogger("run-1")
	auditLogger.SetWriter(&auditBuf)

	summary, err := newDriver(srv, testConfig(srv), batch.Options{Audit: auditLogger}).
		Run(context.Background(), entries(t, "q1,P1,,high,,aws,S1,"))

	require.Error(t, err)
	assert.ErrorIs(t, err, prisma.ErrAuthentication)
	assert.Equal(t, 0, summary.Attempted)
	assert.Len(t, srv.Calls(), 1)
	assert.Contains(t, auditBuf.String(), "failed to authenticate")
}

func TestRun_ResolverFailureDoesNotStopLaterRecords(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.FailSearch("q1", http.StatusBadRequest)

	summary := run(t, srv, testConfig(srv), entries(t,
		"q1,P1,,high,,aws,S1,",
		"q2,P2,,high,,aws,S2,",
		"q3,P3,,high,,aws,S3,",
	))

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, srv.Policies(), "P2")
	assert.Contains(t, srv.Policies(), "P3")
}

func TestRun_RejectedSessionFailsRecordAsAuthentication(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.FailSearch("q1", http.StatusUnauthorized)

	summary := run(t, srv, testConfig(srv), entries(t,
		"q1,P1,,high,,aws,S1,",
		"q2,P2,,high,,aws,S2,",
	))

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, batch.StageSearchResolution, summary.Outcomes[0].Stage)
	assert.True(t, strings.HasPrefix(summary.Outcomes[0].Error, "authentication failed: "), summary.Outcomes[0].Error)
	assert.Contains(t, summary.Outcomes[0].Error, "status 401")
	assert.Contains(t, srv.Policies(), "P2")
}

func TestRun_SaveFailureSkipsPolicyCreation(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.FailSave("S1", http.StatusInternalServerError)

	summary := run(t, srv, testConfig(srv), entries(t, "q1,P1,,high,,aws,S1,"))

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, batch.StageSearchPersist, summary.Outcomes[0].Stage)
	assert.Equal(t, "search-1", summary.Outcomes[0].SearchID)
	assert.Empty(t, srv.CallsTo("/policy"))
}

func TestRun_DuplicatePolicyIsSkipped(t *testing.T) {
	tests := []struct {
		name   string
		legacy bool
	}{
		{"structured status", false},
		{"legacy body", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
					srv := prismatest.NewServer(t)
			srv.AddPolicy("P1")
			if tt.legacy {
				srv.UseLegacyErrors()
			}

			summary := run(t, srv, testConfig(srv), entries(t,
				"q1,P1,,high,,aws,S1,",
				"q2,P2,,high,,aws,S2,",
			))

			assert.Equal(t, 1, summary.Skipped)
			assert.Equal(t, 1, summary.Processed)
			assert.Equal(t, 0, summary.Failed)
			assert.Equal(t, batch.ResultSkipped, summary.Outcomes[0].Result)
			assert.Equal(t, batch.ExitOK, summary.ExitCode())
		})
	}
}

func TestRun_CombinedStrategy(t *testing.T) {
	srv := prismatest.NewServer(t)
	cfg := testConfig(srv)
	cfg.SearchStrategy = config.SearchStrategyCombined
	cfg.CombinedSearchConfirmed = true

	summary := run(t, srv, cfg, entries(t, "q1,P1,Policy one,high,,aws,S1,"))

	assert.Equal(t, 1, summary.Processed)
	assert.Empty(t, srv.CallsTo("/search/history"))

	search := srv.CallsTo("/search/api/v2/config")[0].Body
	assert.Equal(t, "S1", search["name"])
	assert.Equal(t, "Policy one", search["description"])

	policy := srv.CallsTo("/policy")[0].Body
	rule := policy["rule"].(map[string]interface{})
	assert.Equal(t, "search-1", rule["criteria"])
}

func TestRun_IAMPolicies(t *testing.T) {
	srv := prismatest.NewServer(t)
	cfg := testConfig(srv)
	cfg.PolicyType = prisma.PolicyTypeIAM
	cfg.DefaultRecommendation = "Remove the permission"

	summary := run(t, srv, cfg, entries(t, "q1,P1,,high,,aws,S1,"))
	require.Equal(t, 1, summary.Processed)

	assert.Len(t, srv.CallsTo(prisma.DefaultEndpoints().PermissionSearch), 1)
	assert.Empty(t, srv.CallsTo(prisma.DefaultEndpoints().ConfigSearch))

	policy := srv.CallsTo("/policy")[0].Body
	assert.Equal(t, "iam", policy["policyType"])
	assert.Equal(t, "Remove the permission", policy["recommendation"])
	assert.Equal(t, "IAM", policy["rule"].(map[string]interface{})["type"])
}

func TestRun_DeriveSavedSearchName(t *testing.T) {
	srv := prismatest.NewServer(t)
	cfg := testConfig(srv)
	cfg.DeriveSavedSearchName = true

	summary := run(t, srv, cfg, entries(t, "q1,P1,,high,,aws,,"))

	require.Equal(t, 1, summary.Processed)
	assert.Equal(t, "P1 Query", srv.CallsTo("/search/history")[0].Body["name"])
}

func TestRun_ParseErrorCountsAsFailure(t *testing.T) {
	srv := prismatest.NewServer(t)

	summary := run(t, srv, testConfig(srv), entries(t,
		"q1,P1,high",
		"q2,P2,,high,,aws,S2,",
	))

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, batch.StageParse, summary.Outcomes[0].Stage)
	assert.Equal(t, 2, summary.Outcomes[0].Line)
	assert.Equal(t, 1, summary.Processed)
}

func TestRun_DryRun(t *testing.T) {
	srv := prismatest.NewServer(t)

	summary, err := newDriver(srv, testConfig(srv), batch.Options{DryRun: true}).
		Run(context.Background(), entries(t,
			"q1,P1,,high,,aws,S1,",
			"q2,P2,,,,aws,S2,",
		))
	require.NoError(t, err)

	assert.Empty(t, srv.Calls())
	assert.True(t, summary.DryRun)
	assert.Equal(t, batch.ResultValid, summary.Outcomes[0].Result)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
}

func TestRun_Canceled(t *testing.T) {
	srv := prismatest.NewServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDriver(srv, testConfig(srv), batch.Options{}).
		Run(ctx, entries(t, "q1,P1,,high,,aws,S1,"))
	assert.Error(t, err)
	assert.Empty(t, srv.Policies())
}

func TestRun_AuditTrail(t *testing.T) {
	srv := prismatest.NewServer(t)
	srv.AddPolicy("P2")

	var buf bytes.Buffer
	auditLogger := audit.NewLogger("run-42")
	auditLogger.SetWriter(&buf)

	_, err := newDriver(srv, testConfig(srv), batch.Options{Audit: auditLogger}).
		Run(context.Background(), entries(t,
			"q1,P1,,high,,aws,S1,",
			"q2,P2,,high,,aws,S2,",
		))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], " authn ")
	assert.Contains(t, lines[1], `saved search search-1 as "S1"`)
	assert.Contains(t, lines[2], `created policy "P1"`)
	assert.Contains(t, lines[3], `saved search search-2 as "S2"`)
	assert.Contains(t, lines[4], `skipped policy "P2"`)
	for _, line := range lines {
		assert.Contains(t, line, `[run@32473 id="run-42"]`)
	}
}
