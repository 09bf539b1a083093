package notification

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Verbs written to notifications.verb.
const (
	VerbAttendanceEntry    = "attendance_entry"
	VerbAttendanceExit     = "attendance_exit"
	VerbClinicPassIssued   = "clinic_pass_issued"
	VerbClinicPassApproved = "clinic_pass_approved"
	VerbClinicPassRejected = "clinic_pass_rejected"
	VerbStudentInClinic    = "student_in_clinic"
	VerbFindingsReady      = "clinic_findings_ready"
	VerbClinicUpdate       = "clinic_update"
	VerbClinicCheckout     = "clinic_checkout"
	VerbExcuseSubmitted    = "excuse_submitted"
	VerbExcuseDecided      = "excuse_decided"
	VerbAnnouncementPosted = "announcement_posted"
)

// Object is the payload of student-related notifications. Gate taps fill
// exactly student_id, full_name, remarks, time and status.
type Object struct {
	StudentID uuid.UUID  `json:"student_id,omitempty"`
	FullName  string     `json:"full_name,omitempty"`
	Remarks   string     `json:"remarks,omitempty"`
	Time      string     `json:"time,omitempty"`
	Status    string     `json:"status,omitempty"`
	RefID     *uuid.UUID `json:"ref_id,omitempty"`
	Title     string     `json:"title,omitempty"`
}

// DecodeObject reads an Object back from a stored row. Unknown shapes
// decode to the zero value.
func DecodeObject(raw json.RawMessage) Object {
	var o Object
	_ = json.Unmarshal(raw, &o)
	return o
}
