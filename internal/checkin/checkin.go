// Package checkin implements the check-in validation pipeline: the ordered
// set of rules that decides whether a single attendance attempt is accepted.
package checkin

// State tracks how far an attempt made it through the pipeline.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateCodeChecked      State = "CODE_CHECKED"
	StateIdentityResolved State = "IDENTITY_RESOLVED"
	StateNameMatched      State = "NAME_MATCHED"
	StateLocationVerified State = "LOCATION_VERIFIED"
	StateDuplicateChecked State = "DUPLICATE_CHECKED"
	StateAccepted         State = "ACCEPTED"
	StateRejected         State = "REJECTED"
)

// Reason identifies why an attempt was rejected. Every value is user-facing
// and recoverable; a rejected attempt is always cleanly resubmittable.
type Reason string

const (
	ReasonMissingFields     Reason = "MISSING_FIELDS"
	ReasonSessionNotFound   Reason = "SESSION_NOT_FOUND"
	ReasonSessionExpired    Reason = "SESSION_EXPIRED"
	ReasonInvalidCode       Reason = "INVALID_CODE"
	ReasonInvalidRollNumber Reason = "INVALID_ROLL_NUMBER"
	ReasonStudentNotFound   Reason = "STUDENT_NOT_FOUND"
	ReasonNameMismatch      Reason = "NAME_MISMATCH"
	ReasonLocationRejected  Reason = "LOCATION_REJECTED"
	ReasonAlreadyMarked     Reason = "ALREADY_MARKED"
)

var reasonMessages = map[Reason]string{
	ReasonMissingFields:     "Missing required fields",
	ReasonSessionNotFound:   "Session not found",
	ReasonSessionExpired:    "Session has expired",
	ReasonInvalidCode:       "Invalid secret code",
	ReasonInvalidRollNumber: "Invalid roll number",
	ReasonStudentNotFound:   "Student not found for this roll number",
	ReasonNameMismatch:      "Name does not match the roll number",
	ReasonLocationRejected:  "Location verification failed",
	ReasonAlreadyMarked:     "Attendance already marked for this session",
}

// Message returns the human-readable text for a reason.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}
