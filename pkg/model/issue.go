package model

import "fmt"

type IssueType string

const (
	IssueAllocation   IssueType = "allocation"
	IssueAvailability IssueType = "availability"
	IssueCluster      IssueType = "cluster"
	IssueGroup        IssueType = "group"
	IssueRoom         IssueType = "room"
	IssueTeacher      IssueType = "teacher"
	IssueParser       IssueType = "parser"
	IssueProblem      IssueType = "problem"
	IssueSolver       IssueType = "solver"
	IssueOther        IssueType = "other"
)

var issueTypes = map[IssueType]bool{
	IssueAllocation:   true,
	IssueAvailability: true,
	IssueCluster:      true,
	IssueGroup:        true,
	IssueRoom:         true,
	IssueTeacher:      true,
	IssueParser:       true,
	IssueProblem:      true,
	IssueSolver:       true,
	IssueOther:        true,
}

// Issue describes one violated rule. Id is 0 when the issue is not tied to an entity.
type Issue struct {
	Type    IssueType `json:"type"`
	Id      uint64    `json:"id"`
	Message string    `json:"msg"`
}

// NewIssue builds an issue, falling back to IssueOther for unknown categories
func NewIssue(issueType IssueType, id uint64, format string, args ...any) Issue {
	if !issueTypes[issueType] {
		issueType = IssueOther
	}
	return Issue{Type: issueType, Id: id, Message: fmt.Sprintf(format, args...)}
}

func (issue Issue) String() string {
	return fmt.Sprintf("%v(%v): %v", issue.Type, issue.Id, issue.Message)
}

// IssueError carries an Issue through error returns (parsing and registration failures)
type IssueError struct {
	Issue Issue
}

func (err *IssueError) Error() string {
	return err.Issue.Message
}

func newIssueError(issueType IssueType, id uint64, format string, args ...any) *IssueError {
	return &IssueError{Issue: NewIssue(issueType, id, format, args...)}
}
