package upstream

import (
	"context"
	"net/url"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

// StudentByID looks up a single student by national ID.
func (c *Client) StudentByID(ctx context.Context, nationalID string) (*models.Student, error) {
	var student models.Student
	err := c.getJSON(ctx, "student_by_id", c.studyURL("/api/student/"+url.PathEscape(nationalID)), &student)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}
	if student.NationalID == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &student, nil
}

// StudyInfoByBranch returns the roster of program enrollments for one branch.
// A JSON null body decodes to a nil slice; it is normalized to an empty roster
// so callers can rely on "roster present" meaning scoping applies.
func (c *Client) StudyInfoByBranch(ctx context.Context, branchID string) ([]models.StudyInfo, error) {
	if branchID == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "branch information not found on session")
	}
	var roster []models.StudyInfo
	if err := c.getJSON(ctx, "study_info_by_branch", c.studyURL("/api/StudentStudyInfo/by-branch/"+url.PathEscape(branchID)), &roster); err != nil {
		return nil, err
	}
	if roster == nil {
		roster = []models.StudyInfo{}
	}
	return roster, nil
}

// Users returns the externally hosted user list. Credential matching happens
// in the auth service; the upstream exposes no login endpoint of its own.
func (c *Client) Users(ctx context.Context) ([]models.UpstreamUser, error) {
	var users []models.UpstreamUser
	if err := c.getJSON(ctx, "users", c.studyURL("/api/userinfo"), &users); err != nil {
		return nil, err
	}
	return users, nil
}
