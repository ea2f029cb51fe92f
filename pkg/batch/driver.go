package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/policyctl/pkg/audit"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
	"github.com/doodlesbykumbi/policyctl/pkg/record"
)

// API is the part of the CSPM API a run uses. *prisma.Client implements it.
type API interface {
	Login(ctx context.Context, creds prisma.Credentials) (*prisma.Session, error)
	ResolveSearch(ctx context.Context, session *prisma.Session, req prisma.SearchRequest) (string, error)
	SaveSearch(ctx context.Context, session *prisma.Session, req prisma.SaveSearchRequest) error
	CreatePolicy(ctx context.Context, session *prisma.Session, req prisma.PolicyRequest) (*prisma.Policy, error)
}

// Options configures a Driver.
type Options struct {
	Logger *zap.Logger
	Audit  *audit.Logger
	RunID  string
	// DryRun validates records without logging in or calling the API.
	DryRun bool
}

// Driver provisions one policy per input record.
type Driver struct {
	api    API
	cfg    config.Config
	logger *zap.Logger
	audit  *audit.Logger
	runID  string
	dryRun bool
	now    func() time.Time
}

// NewDriver creates a driver that talks to api using cfg.
func NewDriver(api API, cfg config.Config, opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLogger := opts.Audit
	if auditLogger == nil {
		auditLogger = audit.Discard()
	}
	return &Driver{
		api:    api,
		cfg:    cfg,
		logger: logger,
		audit:  auditLogger,
		runID:  opts.RunID,
		dryRun: opts.DryRun,
		now:    time.Now,
	}
}

// Run logs in once and processes entries in order. A failing record is
// recorded in the summary and does not stop the run.
//
// Run returns an error wrapping prisma.ErrAuthentication, with no records
// processed, when login fails. It returns ctx.Err() when ctx is done before
// all entries are processed; the summary then covers the records handled so
// far.
func (d *Driver) Run(ctx context.Context, entries []record.Entry) (*Summary, error) {
	summary := &Summary{RunID: d.runID, DryRun: d.dryRun}

	var session *prisma.Session
	if !d.dryRun {
		var err error
		session, err = d.login(ctx)
		if err != nil {
			return summary, err
		}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("run interrupted", zap.Int("remaining", len(entries)-summary.Attempted))
			return summary, err
		}
		if session != nil && session.Expired(d.now()) {
			d.logger.Warn("session token has expired, remaining calls will likely be rejected",
				zap.Time("expires_at", session.ExpiresAt))
		}
		outcome := d.process(ctx, session, entry)
		summary.add(outcome)
	}

	d.logger.Info("run finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (d *Driver) login(ctx context.Context) (*prisma.Session, error) {
	creds := d.cfg.Credentials()
	session, err := d.api.Login(ctx, creds)
	event := audit.AuthenticateEvent{AccessKey: creds.AccessKey, APIURL: d.cfg.APIURL, Success: err == nil}
	if err != nil {
		event.ErrorMessage = err.Error()
		d.audit.Log(event)
		d.logger.Error("authentication failed, no records processed", zap.Stringer("stage", StageAuth), zap.Error(err))
		if !errors.Is(err, prisma.ErrAuthentication) {
			err = fmt.Errorf("%w: %w", prisma.ErrAuthentication, err)
		}
		return nil, err
	}
	d.audit.Log(event)
	return session, nil
}

func (d *Driver) process(ctx context.Context, session *prisma.Session, entry record.Entry) Outcome {
	outcome := Outcome{Line: entry.Line, Stage: StageParse}
	logger := d.logger.With(zap.Int("line", entry.Line))

	if entry.Err != nil {
		return d.fail(logger, outcome, entry.Err)
	}

	rec := *entry.Record
	if d.cfg.DeriveSavedSearchName {
		rec.DeriveSavedSearchName()
	}
	outcome.PolicyName = rec.PolicyName
	logger = logger.With(zap.String("policy", rec.PolicyName))
	logger.Debug("loaded record",
		zap.String("query", rec.Query),
		zap.String("description", rec.Description()),
		zap.String("severity", rec.Severity),
		zap.Strings("labels", rec.Labels()),
		zap.String("cloud_type", rec.CloudType),
		zap.String("saved_search_name", rec.SavedSearchName),
		zap.String("saved_search_description", rec.SearchDescription()))

	outcome.Stage = StageMissingFields
	if err := rec.Validate(); err != nil {
		return d.fail(logger, outcome, err)
	}
	if d.dryRun {
		outcome.Result = ResultValid
		logger.Info("record is valid")
		return outcome
	}

	combined := d.cfg.SearchStrategy == config.SearchStrategyCombined

	outcome.Stage = StageSearchResolution
	searchReq := prisma.SearchRequest{Query: rec.Query, Type: d.cfg.PolicyType}
	if combined {
		searchReq.Name = rec.SavedSearchName
		searchReq.Description = rec.SearchDescription()
	}
	searchID, err := d.api.ResolveSearch(ctx, session, searchReq)
	if err != nil {
		return d.fail(logger, outcome, err)
	}
	outcome.SearchID = searchID

	saved := audit.SavedSearchEvent{SearchID: searchID, Name: rec.SavedSearchName, CloudType: rec.CloudType, Success: true}
	if !combined {
		outcome.Stage = StageSearchPersist
		err := d.api.SaveSearch(ctx, session, prisma.SaveSearchRequest{
			ID:          searchID,
			Query:       rec.Query,
			Name:        rec.SavedSearchName,
			Description: rec.SearchDescription(),
			CloudType:   rec.CloudType,
		})
		if err != nil {
			saved.Success = false
			saved.ErrorMessage = err.Error()
			d.audit.Log(saved)
			return d.fail(logger, outcome, err)
		}
	}
	d.audit.Log(saved)

	outcome.Stage = StagePolicyCreation
	recommendation := rec.Recommendation
	if recommendation == "" {
		recommendation = d.cfg.DefaultRecommendation
	}
	policy, err := d.api.CreatePolicy(ctx, session, prisma.PolicyRequest{
		Name:           rec.PolicyName,
		Description:    rec.Description(),
		Severity:       rec.Severity,
		Labels:         rec.Labels(),
		CloudType:      rec.CloudType,
		Type:           d.cfg.PolicyType,
		Recommendation: recommendation,
		SearchID:       searchID,
	})
	event := audit.PolicyEvent{
		Name:           rec.PolicyName,
		SearchID:       searchID,
		PolicySeverity: rec.Severity,
		CloudType:      rec.CloudType,
	}
	switch {
	case errors.Is(err, prisma.ErrDuplicatePolicy):
		event.Duplicate = true
		d.audit.Log(event)
		outcome.Result = ResultSkipped
		outcome.Error = err.Error()
		logger.Warn("policy already exists, skipped")
		return outcome
	case err != nil:
		event.ErrorMessage = err.Error()
		d.audit.Log(event)
		return d.fail(logger, outcome, err)
	}

	event.Success = true
	event.PolicyID = policy.ID
	d.audit.Log(event)

	outcome.Result = ResultSucceeded
	outcome.PolicyID = policy.ID
	logger.Info("policy created", zap.String("policy_id", policy.ID))
	return outcome
}

func (d *Driver) fail(logger *zap.Logger, outcome Outcome, err error) Outcome {
	// A rejected session token fails the record as an authentication error.
	if errors.Is(err, prisma.ErrAuthentication) {
		err = fmt.Errorf("%w: %w", prisma.ErrAuthentication, err)
	}
	outcome.Result = ResultFailed
	outcome.Error = err.Error()
	logger.Warn("record skipped", zap.Stringer("stage", outcome.Stage), zap.Error(err))
	return outcome
}
