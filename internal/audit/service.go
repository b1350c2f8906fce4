package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/fsaudit/internal/rules"
)

const (
	defaultRuleConcurrencyConstant = 4
	ruleRejectedMessageConstant    = "rule rejected before traversal"
	ruleEvaluatedMessageConstant   = "rule evaluated"
	runCompletedMessageConstant    = "audit run completed"
	logFieldRulePathConstant       = "rule_path"
	logFieldResultCountConstant    = "result_count"
	logFieldRunIdentifierConstant  = "run_id"
	logFieldCheckedConstant        = "checked"
	logFieldFailedConstant         = "failed"
	logFieldErroredConstant        = "errored"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// RuleTraverser evaluates one rule against the filesystem.
type RuleTraverser interface {
	Traverse(rule rules.Rule) []Result
}

// RuleRejection records a rule whose definition failed validation. The
// rejection aborts only that rule's audit, never the whole batch.
type RuleRejection struct {
	Path   string
	Reason error
}

// Service audits batches of rules, running independent top-level rules in
// parallel. Each rule's traversal owns its own visited set, so cycle breaking
// never leaks across rules.
type Service struct {
	traverser   RuleTraverser
	logger      *zap.Logger
	clock       Clock
	concurrency int
}

// NewService constructs an audit service with the provided dependencies.
func NewService(traverser RuleTraverser, logger *zap.Logger, clock Clock) *Service {
	if traverser == nil {
		traverser = NewTraverser(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		traverser:   traverser,
		logger:      logger,
		clock:       clock,
		concurrency: defaultRuleConcurrencyConstant,
	}
}

// Run validates and audits the provided rules, returning the aggregated
// report and the definitions that were rejected before traversal. Result
// order follows rule order regardless of scheduling.
func (service *Service) Run(executionContext context.Context, ruleSet []rules.Rule) (Report, []RuleRejection) {
	var rejections []RuleRejection
	acceptedRules := make([]rules.Rule, 0, len(ruleSet))
	for _, candidateRule := range ruleSet {
		if validationError := candidateRule.Validate(); validationError != nil {
			service.logger.Warn(
				ruleRejectedMessageConstant,
				zap.String(logFieldRulePathConstant, candidateRule.Path),
				zap.Error(validationError),
			)
			rejections = append(rejections, RuleRejection{Path: candidateRule.Path, Reason: validationError})
			continue
		}
		acceptedRules = append(acceptedRules, candidateRule)
	}

	resultBuckets := make([][]Result, len(acceptedRules))
	workGroup, groupContext := errgroup.WithContext(executionContext)
	workGroup.SetLimit(service.concurrency)

	for ruleIndex, acceptedRule := range acceptedRules {
		ruleIndex, acceptedRule := ruleIndex, acceptedRule
		workGroup.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			ruleResults := service.traverser.Traverse(acceptedRule)
			service.logger.Debug(
				ruleEvaluatedMessageConstant,
				zap.String(logFieldRulePathConstant, acceptedRule.Path),
				zap.Int(logFieldResultCountConstant, len(ruleResults)),
			)
			resultBuckets[ruleIndex] = ruleResults
			return nil
		})
	}

	_ = workGroup.Wait()

	var orderedResults []Result
	for _, bucket := range resultBuckets {
		orderedResults = append(orderedResults, bucket...)
	}

	report := Aggregate(orderedResults)
	report.RunID = uuid.NewString()
	report.GeneratedAt = service.clock.Now()

	service.logger.Info(
		runCompletedMessageConstant,
		zap.String(logFieldRunIdentifierConstant, report.RunID),
		zap.Int(logFieldCheckedConstant, report.Summary.Checked),
		zap.Int(logFieldFailedConstant, report.Summary.Failed),
		zap.Int(logFieldErroredConstant, report.Summary.Errored),
	)

	return report, rejections
}
