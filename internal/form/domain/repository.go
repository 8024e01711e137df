package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// OverdueSubmission is a pending submission whose due date has passed,
// joined with the owning template for alerting.
type OverdueSubmission struct {
	SubmissionID snowflake.ID
	TemplateID   snowflake.ID
	WorkspaceID  snowflake.ID
	TemplateName string
	ContactID    snowflake.ID
	DueAt        time.Time
}

type Repository interface {
	InsertTemplate(ctx context.Context, db *gorm.DB, tpl *Template) error
	FindTemplateByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Template, error)
	ListTemplates(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Template, error)

	InsertSubmission(ctx context.Context, db *gorm.DB, sub *Submission) error

	// FindSubmissionByID is unscoped: the rule evaluator holds only a
	// submission id from an event payload.
	FindSubmissionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Submission, error)

	// ListSubmissions scopes through the owning template's workspace.
	// templateID of zero lists across all of the workspace's templates.
	ListSubmissions(ctx context.Context, db *gorm.DB, workspaceID, templateID snowflake.ID) ([]*Submission, error)

	// ListPendingPastDue scans across workspaces for the overdue sweep.
	ListPendingPastDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]OverdueSubmission, error)

	// MarkOverdueIfPending flips pending to overdue. A zero count means
	// another instance already claimed the submission.
	MarkOverdueIfPending(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
