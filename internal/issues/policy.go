package issues

import (
	"fmt"

	"workhub/internal/models"
)

// TransitionPolicy decides which issue status changes are allowed.
type TransitionPolicy interface {
	Allowed(from, to models.IssueStatus) bool
}

// Permissive allows moving between any two states.
type Permissive struct{}

func (Permissive) Allowed(from, to models.IssueStatus) bool {
	return to.Valid()
}

// Table allows only the listed transitions. Staying in place is always allowed.
type Table map[models.IssueStatus][]models.IssueStatus

func (t Table) Allowed(from, to models.IssueStatus) bool {
	if from == to {
		return to.Valid()
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Strict forbids skipping back from closed to anything but open.
var Strict = Table{
	models.IssueOpen:       {models.IssueInProgress, models.IssueResolved, models.IssueClosed},
	models.IssueInProgress: {models.IssueOpen, models.IssueResolved, models.IssueClosed},
	models.IssueResolved:   {models.IssueInProgress, models.IssueClosed, models.IssueOpen},
	models.IssueClosed:     {models.IssueOpen},
}

// PolicyByName maps a configuration value onto a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "permissive":
		return Permissive{}, nil
	case "strict":
		return Strict, nil
	default:
		return nil, fmt.Errorf("unknown issue transition policy %q", name)
	}
}
