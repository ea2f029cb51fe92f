package acceptance

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/policyctl/pkg/batch"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma/prismatest"
	"github.com/doodlesbykumbi/policyctl/pkg/record"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	t       testing.TB
	api     *prismatest.Server
	cfg     config.Config
	input   string
	summary *batch.Summary
	runErr  error
}

// NewStepsContext creates a new steps context
func NewStepsContext(t testing.TB) *StepsContext {
	return &StepsContext{t: t}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a Prisma Cloud API is running$`, s.aPrismaCloudAPIIsRunning)

	// API behaviour steps
	sc.Step(`^the API rejects the credentials$`, s.theAPIRejectsTheCredentials)
	sc.Step(`^the search for "([^"]*)" fails with status (\d+)$`, s.theSearchFailsWithStatus)
	sc.Step(`^saving the search "([^"]*)" fails with status (\d+)$`, s.savingTheSearchFailsWithStatus)
	sc.Step(`^a policy named "([^"]*)" already exists$`, s.aPolicyNamedAlreadyExists)
	sc.Step(`^the API reports errors without status headers$`, s.theAPIReportsErrorsWithoutStatusHeaders)

	// Configuration steps
	sc.Step(`^the search strategy is "([^"]*)"$`, s.theSearchStrategyIs)
	sc.Step(`^the policy type is "([^"]*)"$`, s.thePolicyTypeIs)

	// Run steps
	sc.Step(`^the input file:$`, s.theInputFile)
	sc.Step(`^I apply the input file$`, s.iApplyTheInputFile)

	// Outcome steps
	sc.Step(`^the run should fail with an authentication error$`, s.theRunShouldFailWithAnAuthenticationError)
	sc.Step(`^(\d+) records? should be processed$`, s.recordsShouldBeProcessed)
	sc.Step(`^(\d+) records? should have failed$`, s.recordsShouldHaveFailed)
	sc.Step(`^(\d+) records? should have been skipped$`, s.recordsShouldHaveBeenSkipped)
	sc.Step(`^the record on line (\d+) should have failed at stage "([^"]*)"$`, s.theRecordOnLineShouldHaveFailedAtStage)
	sc.Step(`^the API should have received (\d+) (login|search|save|policy) requests?$`, s.theAPIShouldHaveReceivedRequests)
	sc.Step(`^the API should have received (\d+) search requests? for "([^"]*)"$`, s.theAPIShouldHaveReceivedSearchRequestsFor)
	sc.Step(`^the policy "([^"]*)" should exist$`, s.thePolicyShouldExist)
	sc.Step(`^the policy "([^"]*)" should have been sent with labels "([^"]*)"$`, s.thePolicyShouldHaveBeenSentWithLabels)
}

// Background steps

func (s *StepsContext) aPrismaCloudAPIIsRunning() error {
	s.api = prismatest.NewServer(s.t)
	s.cfg = config.Config{
		APIURL:         s.api.URL,
		AccessKey:      "acceptance-access-key",
		SecretKey:      "acceptance-secret-key",
		Endpoints:      prisma.DefaultEndpoints(),
		PolicyType:     prisma.PolicyTypeConfig,
		SearchStrategy: config.SearchStrategySeparate,
		RequestTimeout: config.DefaultRequestTimeout,
	}
	return nil
}

// API behaviour steps

func (s *StepsContext) theAPIRejectsTheCredentials() error {
	s.api.FailLogin(401)
	return nil
}

func (s *StepsContext) theSearchFailsWithStatus(query string, status int) error {
	s.api.FailSearch(query, status)
	return nil
}

func (s *StepsContext) savingTheSearchFailsWithStatus(name string, status int) error {
	s.api.FailSave(name, status)
	return nil
}

func (s *StepsContext) aPolicyNamedAlreadyExists(name string) error {
	s.api.AddPolicy(name)
	return nil
}

func (s *StepsContext) theAPIReportsErrorsWithoutStatusHeaders() error {
	s.api.UseLegacyErrors()
	return nil
}

// Configuration steps

func (s *StepsContext) theSearchStrategyIs(name string) error {
	strategy, err := config.SearchStrategyString(name)
	if err != nil {
		return err
	}
	s.cfg.SearchStrategy = strategy
	s.cfg.CombinedSearchConfirmed = strategy == config.SearchStrategyCombined
	return s.cfg.Validate()
}

func (s *StepsContext) thePolicyTypeIs(name string) error {
	policyType, err := prisma.PolicyTypeString(name)
	if err != nil {
		return err
	}
	s.cfg.PolicyType = policyType
	return nil
}

// Run steps

func (s *StepsContext) theInputFile(doc *godog.DocString) error {
	s.input = doc.Content + "\n"
	return nil
}

func (s *StepsContext) iApplyTheInputFile() error {
	entries, err := record.Read(strings.NewReader(s.input))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	client := prisma.NewClient(s.cfg.ClientOptions())
	driver := batch.NewDriver(client, s.cfg, batch.Options{RunID: "acceptance"})
	s.summary, s.runErr = driver.Run(context.Background(), entries)
	return nil
}

// Outcome steps

func (s *StepsContext) theRunShouldFailWithAnAuthenticationError() error {
	if !errors.Is(s.runErr, prisma.ErrAuthentication) {
		return fmt.Errorf("expected authentication error, got %v", s.runErr)
	}
	return nil
}

func (s *StepsContext) completedRun() error {
	if s.runErr != nil {
		return fmt.Errorf("run failed: %w", s.runErr)
	}
	return nil
}

func (s *StepsContext) recordsShouldBeProcessed(n int) error {
	if s.summary == nil {
		return errors.New("no run summary")
	}
	if s.summary.Processed != n {
		return fmt.Errorf("expected %d processed records, got %d", n, s.summary.Processed)
	}
	return nil
}

func (s *StepsContext) recordsShouldHaveFailed(n int) error {
	if err := s.completedRun(); err != nil {
		return err
	}
	if s.summary.Failed != n {
		return fmt.Errorf("expected %d failed records, got %d", n, s.summary.Failed)
	}
	return nil
}

func (s *StepsContext) recordsShouldHaveBeenSkipped(n int) error {
	if err := s.completedRun(); err != nil {
		return err
	}
	if s.summary.Skipped != n {
		return fmt.Errorf("expected %d skipped records, got %d", n, s.summary.Skipped)
	}
	return nil
}

func (s *StepsContext) theRecordOnLineShouldHaveFailedAtStage(line int, stage string) error {
	if err := s.completedRun(); err != nil {
		return err
	}
	for _, o := range s.summary.Outcomes {
		if o.Line != line {
			continue
		}
		if o.Result != batch.ResultFailed {
			return fmt.Errorf("line %d: expected failure, got %s", line, o.Result)
		}
		if o.Stage.String() != stage {
			return fmt.Errorf("line %d: expected stage %s, got %s", line, stage, o.Stage)
		}
		return nil
	}
	return fmt.Errorf("no outcome for line %d", line)
}

func (s *StepsContext) pathFor(kind string) string {
	endpoints := s.cfg.Endpoints
	switch kind {
	case "login":
		return endpoints.Login
	case "search":
		if s.cfg.PolicyType == prisma.PolicyTypeIAM {
			return endpoints.PermissionSearch
		}
		return endpoints.ConfigSearch
	case "save":
		return endpoints.SearchHistory + "/"
	default:
		return endpoints.Policy
	}
}

func (s *StepsContext) theAPIShouldHaveReceivedRequests(n int, kind string) error {
	got := len(s.api.CallsTo(s.pathFor(kind)))
	if got != n {
		return fmt.Errorf("expected %d %s requests, got %d", n, kind, got)
	}
	return nil
}

func (s *StepsContext) theAPIShouldHaveReceivedSearchRequestsFor(n int, query string) error {
	got := 0
	for _, c := range s.api.CallsTo(s.pathFor("search")) {
		if c.Body["query"] == query {
			got++
		}
	}
	if got != n {
		return fmt.Errorf("expected %d search requests for %q, got %d", n, query, got)
	}
	return nil
}

func (s *StepsContext) thePolicyShouldExist(name string) error {
	if _, ok := s.api.Policies()[name]; !ok {
		return fmt.Errorf("policy %q was not created", name)
	}
	return nil
}

func (s *StepsContext) thePolicyShouldHaveBeenSentWithLabels(name, labels string) error {
	want := []interface{}{}
	for _, l := range strings.Split(labels, ",") {
		if l != "" {
			want = append(want, l)
		}
	}
	for _, c := range s.api.CallsTo(s.cfg.Endpoints.Policy) {
		if c.Body["name"] != name {
			continue
		}
		if !reflect.DeepEqual(c.Body["labels"], want) {
			return fmt.Errorf("policy %q sent with labels %v, want %v", name, c.Body["labels"], want)
		}
		return nil
	}
	return fmt.Errorf("no policy request for %q", name)
}
