package attendance

import "campusattend/internal/apperr"

// Rule violations, in pipeline order.
var (
	ErrMissingFields     = apperr.New(apperr.Invalid, "missing_fields", "Missing required fields (secretCode and studentEmail are required)")
	ErrDeviceRequired    = apperr.New(apperr.Invalid, "device_required", "Device ID is required to mark attendance")
	ErrInvalidCode       = apperr.New(apperr.NotFound, "invalid_code", "Invalid secret code")
	ErrQRDisabled        = apperr.New(apperr.Invalid, "qr_disabled", "QR check-in is not enabled for this event")
	ErrQRMismatch        = apperr.New(apperr.Invalid, "qr_mismatch", "QR code does not match this event")
	ErrNotStarted        = apperr.New(apperr.Invalid, "event_not_started", "Event has not started yet")
	ErrEnded             = apperr.New(apperr.Invalid, "event_ended", "Event has already ended")
	ErrCodeWindow        = apperr.New(apperr.Invalid, "code_window", "Secret code is not valid at this time")
	ErrLocationRequired  = apperr.New(apperr.Invalid, "location_required", "Location is required to mark attendance for this event")
	ErrOutsideRadius     = apperr.New(apperr.Invalid, "outside_radius", "You are outside the event location radius")
	ErrStudentNotFound   = apperr.New(apperr.NotFound, "student_not_found", "Student not found")
	ErrWrongDevice       = apperr.New(apperr.Conflict, "wrong_device", "Attendance can only be marked from your registered device. Please contact your teacher if you changed your phone.")
	ErrDeviceElsewhere   = apperr.New(apperr.Conflict, "device_registered_elsewhere", "This device is already registered to another student account. Attendance cannot be marked.")
	ErrDeviceUsedByOther = apperr.New(apperr.Conflict, "device_used_for_event", "This device has already been used to mark attendance for this event. Only one student per device is allowed.")
	ErrAlreadyMarked     = apperr.New(apperr.Conflict, "already_marked", "You have already marked attendance for this event")
)

// Errors outside the self-service pipeline.
var (
	ErrEmailMismatch      = apperr.New(apperr.Forbidden, "email_mismatch", "You can only mark your own attendance")
	ErrStaffMissingFields = apperr.New(apperr.Invalid, "missing_fields", "Event ID and student email required")
	ErrEventNotFound      = apperr.New(apperr.NotFound, "event_not_found", "Event not found")
	ErrStudentMarked      = apperr.New(apperr.Conflict, "already_marked", "Attendance already marked for this student and event")
	ErrEventIDRequired    = apperr.New(apperr.Invalid, "missing_fields", "Event ID is required")
)
