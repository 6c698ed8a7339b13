package upstream

import (
	"context"
	"fmt"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

// attendanceEnvelope wraps the attendance read endpoint response.
type attendanceEnvelope struct {
	Success bool                      `json:"success"`
	Data    []models.AttendanceRecord `json:"data"`
	Message string                    `json:"message"`
}

// writeEnvelope wraps the registry write endpoint responses.
type writeEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AttendanceLog fetches the entire attendance log. The upstream performs no
// filtering; every view filters client-side. Records missing their identity
// or date are rejected as a shape violation rather than silently aggregated.
func (c *Client) AttendanceLog(ctx context.Context) ([]models.AttendanceRecord, error) {
	var envelope attendanceEnvelope
	if err := c.getJSON(ctx, "attendance_log", c.registryURL("/get_attendance.php"), &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "attendance service reported failure")
	}
	for i, record := range envelope.Data {
		if record.NationalID == "" || record.AttendanceDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("attendance record %d missing national_id or attendance_date", i))
		}
	}
	return envelope.Data, nil
}

// SubmitAttendance appends one confirmation event. The upstream offers no
// idempotency guarantee; duplicate submissions are tolerated at read time.
func (c *Client) SubmitAttendance(ctx context.Context, record models.AttendanceRecord) error {
	var envelope writeEnvelope
	if err := c.postJSON(ctx, "save_attendance", c.registryURL("/save_attendance.php"), record, &envelope); err != nil {
		return err
	}
	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "attendance service rejected the submission"
		}
		return appErrors.Clone(appErrors.ErrUpstream, msg)
	}
	return nil
}

// TeachingData fetches the trainer/diploma/subject tree.
func (c *Client) TeachingData(ctx context.Context) ([]models.TrainerTeaching, error) {
	var data []models.TrainerTeaching
	if err := c.getJSON(ctx, "teaching_data", c.registryURL("/get_teaching_data.php"), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// AddTeachingData stores one teaching-data submission.
func (c *Client) AddTeachingData(ctx context.Context, submission models.TeachingSubmission) error {
	var envelope writeEnvelope
	if err := c.postJSON(ctx, "add_teaching_data", c.registryURL("/add_teaching_data.php"), submission, &envelope); err != nil {
		return err
	}
	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "teaching service rejected the submission"
		}
		return appErrors.Clone(appErrors.ErrUpstream, msg)
	}
	return nil
}
