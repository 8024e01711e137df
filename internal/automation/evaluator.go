package automation

import (
	"context"
	"fmt"

	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/providers/email"
	"github.com/smallbiznis/opsdesk/internal/providers/sms"
	ruledomain "github.com/smallbiznis/opsdesk/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Evaluator runs the workspace's automation rules against a form
// submission. Rules are independent: a failure in one is logged and never
// stops the rest.
type Evaluator struct {
	db       *gorm.DB
	log      *zap.Logger
	forms    formdomain.Repository
	rules    ruledomain.Repository
	contacts contactdomain.Repository
	email    email.Provider
	sms      sms.Provider
}

type EvaluatorParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Forms    formdomain.Repository
	Rules    ruledomain.Repository
	Contacts contactdomain.Repository
	Email    email.Provider
	SMS      sms.Provider
}

func NewEvaluator(p EvaluatorParams) *Evaluator {
	return &Evaluator{
		db:       p.DB,
		log:      p.Log.Named("automation.evaluator"),
		forms:    p.Forms,
		rules:    p.Rules,
		contacts: p.Contacts,
		email:    p.Email,
		sms:      p.SMS,
	}
}

// HandleFormSubmitted reacts to FORM_SUBMITTED.
func (e *Evaluator) HandleFormSubmitted(ctx context.Context, payload eventbus.Payload) error {
	submissionID, ok := payload.ID("submission_id")
	if !ok {
		return fmt.Errorf("payload missing submission_id")
	}

	submission, err := e.forms.FindSubmissionByID(ctx, e.db, submissionID)
	if err != nil {
		return err
	}
	if submission == nil {
		return nil
	}

	rules, err := e.rules.ListActiveByTemplate(ctx, e.db, submission.TemplateID)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := e.evaluate(ctx, rule, submission); err != nil {
			e.log.Error("rule evaluation failed",
				zap.String("rule_id", rule.ID.String()),
				zap.String("submission_id", submissionID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (e *Evaluator) evaluate(ctx context.Context, rule *ruledomain.Rule, submission *formdomain.Submission) error {
	switch rule.ActionType {
	case ruledomain.ActionSendEmail:
		return e.sendEmail(ctx, rule, submission)
	case ruledomain.ActionSendSMS:
		return e.sendSMS(ctx, rule, submission)
	default:
		return fmt.Errorf("unknown action type %q", rule.ActionType)
	}
}

func (e *Evaluator) sendEmail(ctx context.Context, rule *ruledomain.Rule, submission *formdomain.Submission) error {
	recipient, _ := rule.ActionConfig["recipient"].(string)

	if recipient == "contact" {
		contact, err := e.contacts.FindByID(ctx, e.db, rule.WorkspaceID, submission.ContactID)
		if err != nil {
			return err
		}
		if contact == nil || contact.Email == "" {
			// Nothing to send to.
			return nil
		}
		recipient = contact.Email
	}

	subject, _ := rule.ActionConfig["subject"].(string)
	if subject == "" {
		subject = "Thanks for your submission"
	}
	body, _ := rule.ActionConfig["template"].(string)
	if body == "" {
		body = "We received your form submission and will be in touch shortly."
	}

	if err := e.email.Send(ctx, email.Message{To: recipient, Subject: subject, Body: body}); err != nil {
		return err
	}

	e.log.Info("rule sent email",
		zap.String("rule_id", rule.ID.String()),
		zap.String("to", recipient),
	)
	return nil
}

func (e *Evaluator) sendSMS(ctx context.Context, rule *ruledomain.Rule, submission *formdomain.Submission) error {
	contact, err := e.contacts.FindByID(ctx, e.db, rule.WorkspaceID, submission.ContactID)
	if err != nil {
		return err
	}
	if contact == nil || contact.Phone == "" {
		return nil
	}

	body, _ := rule.ActionConfig["template"].(string)
	if body == "" {
		body = "We received your form submission and will be in touch shortly."
	}

	if err := e.sms.Send(ctx, sms.Message{To: contact.Phone, Body: body}); err != nil {
		return err
	}

	e.log.Info("rule sent sms",
		zap.String("rule_id", rule.ID.String()),
		zap.String("to", contact.Phone),
	)
	return nil
}
