// Package enrich looks up profile metadata for a list of usernames.
package enrich

import (
	"context"
	"strconv"

	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
	"followcheck/pkg/pacing"
	"followcheck/pkg/report"
)

// ProfileRecord is the metadata of one username. Nil fields mean the lookup
// failed.
type ProfileRecord struct {
	Username    string
	FullName    *string
	IsPrivate   *bool
	AccountType *int
	IsVerified  *bool
}

// CSVRow renders the record with empty cells for missing values
func (r ProfileRecord) CSVRow() []string {
	row := []string{r.Username, "", "", "", ""}
	if r.FullName != nil {
		row[1] = *r.FullName
	}
	if r.IsPrivate != nil {
		row[2] = strconv.FormatBool(*r.IsPrivate)
	}
	if r.AccountType != nil {
		row[3] = strconv.Itoa(*r.AccountType)
	}
	if r.IsVerified != nil {
		row[4] = strconv.FormatBool(*r.IsVerified)
	}
	return row
}

// Found reports whether the lookup succeeded
func (r ProfileRecord) Found() bool {
	return r.FullName != nil
}

// SkippedUser is a username whose lookup failed
type SkippedUser struct {
	Username string
	Reason   string
}

// Result holds one record per input username, in input order, and the
// usernames that failed
type Result struct {
	Records []ProfileRecord
	Skipped []SkippedUser
}

// SkippedLines converts the skipped users for the skipped users report
func (r *Result) SkippedLines() []report.SkippedLine {
	lines := make([]report.SkippedLine, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		lines = append(lines, report.SkippedLine{Username: s.Username, Reason: s.Reason})
	}
	return lines
}

// Lookup is the part of the Instagram client the enricher needs
type Lookup interface {
	UserInfoByUsername(ctx context.Context, username string) (*instagram.User, error)
}

// Enricher looks usernames up one at a time, pausing after each
type Enricher struct {
	lookup   Lookup
	pacer    pacing.Pacer
	logger   logger.Logger
	progress ProgressFunc
}

// ProgressFunc is called after each lookup
type ProgressFunc func(done, total int, failed bool)

// NewEnricher creates an enricher
func NewEnricher(lookup Lookup, pacer pacing.Pacer, log logger.Logger) *Enricher {
	if pacer == nil {
		pacer = &pacing.NoDelay{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Enricher{
		lookup: lookup,
		pacer:  pacer,
		logger: log.WithField("component", "enrich"),
	}
}

// OnProgress registers a callback invoked after every lookup
func (e *Enricher) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// Enrich looks up every username. A failed lookup is recorded and the run
// continues; only cancellation stops it early, in which case the records
// gathered so far are returned with the context error.
func (e *Enricher) Enrich(ctx context.Context, usernames []string) (*Result, error) {
	result := &Result{
		Records: make([]ProfileRecord, 0, len(usernames)),
	}

	for i, username := range usernames {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record := ProfileRecord{Username: username}
		user, err := e.lookup.UserInfoByUsername(ctx, username)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			e.logger.WithError(err).WarnWithFields("profile lookup failed", map[string]interface{}{
				"username": username,
				"profile":  instagram.GetUserProfileURL(username),
			})
			result.Skipped = append(result.Skipped, SkippedUser{Username: username, Reason: err.Error()})
		} else {
			fillRecord(&record, user)
			fields := map[string]interface{}{
				"username": username,
				"index":    i + 1,
				"total":    len(usernames),
			}
			if record.AccountType != nil {
				fields["account_type"] = instagram.AccountTypeName(*record.AccountType)
			}
			e.logger.DebugWithFields("profile looked up", fields)
		}
		result.Records = append(result.Records, record)
		if e.progress != nil {
			e.progress(i+1, len(usernames), err != nil)
		}

		if err := e.pacer.Wait(ctx); err != nil {
			return result, err
		}
	}

	logger.LogEnrichmentSummary(len(usernames), len(result.Skipped))
	return result, nil
}

func fillRecord(record *ProfileRecord, user *instagram.User) {
	fullName := user.FullName
	isPrivate := user.IsPrivate
	isVerified := user.IsVerified

	record.FullName = &fullName
	record.IsPrivate = &isPrivate
	record.IsVerified = &isVerified
	if user.AccountType != nil {
		accountType := *user.AccountType
		record.AccountType = &accountType
	}
}
