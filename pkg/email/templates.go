package email

import (
	"fmt"
	"html"
	"strings"
)

// AlertEmailData carries one parent-facing notification.
type AlertEmailData struct {
	ParentName  string
	StudentName string
	Verb        string
	Status      string
	Remarks     string
	Time        string
	AppName     string
}

var alertSubjects = map[string]string{
	"attendance_entry":     "%s arrived at school",
	"attendance_exit":      "%s left school",
	"clinic_pass_approved": "Clinic pass approved for %s",
	"clinic_pass_rejected": "Clinic pass declined for %s",
	"clinic_update":        "Clinic update for %s",
	"clinic_checkout":      "%s was discharged from the clinic",
	"excuse_decided":       "Excuse letter decision for %s",
}

// HasAlertTemplate reports whether verb is delivered by email.
func HasAlertTemplate(verb string) bool {
	_, ok := alertSubjects[verb]
	return ok
}

// ParentAlert renders the email for a parent-facing notification addressed
// to one parent.
func ParentAlert(to string, data AlertEmailData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "Educare Track"
	}
	parent := data.ParentName
	if parent == "" {
		parent = "Parent/Guardian"
	}

	subjectFmt, ok := alertSubjects[data.Verb]
	if !ok {
		subjectFmt = "Update about %s"
	}
	subject := fmt.Sprintf(subjectFmt, data.StudentName)

	var details []string
	if data.Status != "" {
		details = append(details, "Status: "+data.Status)
	}
	if data.Remarks != "" {
		details = append(details, "Remarks: "+data.Remarks)
	}
	if data.Time != "" {
		details = append(details, "Time: "+data.Time)
	}

	textBody := fmt.Sprintf(`Hi %s,

%s.

%s

This is an automated message from %s.`,
		parent, subject, strings.Join(details, "\n"), appName)

	var items strings.Builder
	for _, d := range details {
		items.WriteString("        <li>" + html.EscapeString(d) + "</li>\n")
	}
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #166534;">Hi %s,</h2>
    <p>%s.</p>
    <ul>
%s    </ul>
    <p style="color: #666; font-size: 12px;">This is an automated message from %s.</p>
</body>
</html>`,
		html.EscapeString(parent), html.EscapeString(subject), items.String(), html.EscapeString(appName))

	return Message{
		To:      []string{to},
		Subject: subject,
		Text:    textBody,
		HTML:    htmlBody,
	}
}
