package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
	"campusattend/internal/events"
	"campusattend/internal/qr"
	"campusattend/internal/students"
)

// Store is the attendance persistence the service needs.
type Store interface {
	Insert(ctx context.Context, rec Record) (bool, error)
	ByEventDevice(ctx context.Context, eventIDs []string, deviceID string) (*Record, error)
	Exists(ctx context.Context, eventIDs []string, email string) (bool, error)
	ListByEvent(ctx context.Context, eventIDs []string) ([]Record, error)
	ListByStudent(ctx context.Context, email string) ([]Record, error)
}

// EventLookup resolves events by access code or either identifier form.
type EventLookup interface {
	BySecretCode(ctx context.Context, code string) (*events.Event, error)
	Resolve(ctx context.Context, id string) (*events.Event, error)
}

// StudentStore reads students and binds devices.
type StudentStore interface {
	ByEmail(ctx context.Context, email string) (*students.Student, error)
	ByDevice(ctx context.Context, deviceID string) (*students.Student, error)
	ByEmails(ctx context.Context, emails []string) (map[string]students.Student, error)
	BindDevice(ctx context.Context, email, deviceID string) (bool, error)
}

// Observer is told the outcome of every check-in attempt.
type Observer interface {
	CheckIn(method, outcome string)
}

type nopObserver struct{}

func (nopObserver) CheckIn(string, string) {}

// Service is the attendance validator and recorder.
type Service struct {
	repo     Store
	events   EventLookup
	students StudentStore
	observer Observer
	now      func() time.Time
}

// NewService wires the service. A nil observer disables outcome reporting.
func NewService(repo Store, evts EventLookup, studs StudentStore, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{repo: repo, events: evts, students: studs, observer: observer, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) observe(method string, err error) {
	if err == nil {
		s.observer.CheckIn(method, "ok")
		return
	}
	_, code := apperr.Public(err)
	s.observer.CheckIn(method, code)
}

// selfEmail applies the token identity to a self-service request.
func selfEmail(claims auth.Claims, requested string) (string, error) {
	if !claims.HasRole(auth.RoleStudent) {
		return "", apperr.ErrForbidden
	}
	own := normalizeEmail(claims.Email)
	requested = normalizeEmail(requested)
	if requested == "" {
		return own, nil
	}
	if requested != own {
		return "", ErrEmailMismatch
	}
	return requested, nil
}

// MarkByCode checks a student in with an event's secret code.
func (s *Service) MarkByCode(ctx context.Context, claims auth.Claims, in CodeInput) (rec Record, err error) {
	defer func() { s.observe(MethodCode, err) }()

	email, err := selfEmail(claims, in.StudentEmail)
	if err != nil {
		return Record{}, err
	}
	return s.mark(ctx, attempt{
		method:     MethodCode,
		secretCode: strings.TrimSpace(in.SecretCode),
		email:      email,
		deviceID:   strings.TrimSpace(in.DeviceID),
		lat:        in.Lat,
		lng:        in.Lng,
	})
}

// MarkByQR checks a student in with a scanned QR payload. The event must
// allow QR check-in and the payload's event must own the embedded code.
func (s *Service) MarkByQR(ctx context.Context, claims auth.Claims, in QRInput) (rec Record, err error) {
	defer func() { s.observe(MethodQR, err) }()

	email, err := selfEmail(claims, in.StudentEmail)
	if err != nil {
		return Record{}, err
	}
	payload, err := qr.Decode(in.Payload)
	if err != nil {
		return Record{}, err
	}
	return s.mark(ctx, attempt{
		method:     MethodQR,
		secretCode: payload.SecretCode,
		qrEventID:  payload.EventID,
		email:      email,
		deviceID:   strings.TrimSpace(in.DeviceID),
		lat:        in.Lat,
		lng:        in.Lng,
	})
}

type attempt struct {
	method     string
	secretCode string
	qrEventID  string
	email      string
	deviceID   string
	lat, lng   *float64
}

// mark runs the admissibility rules in order and records the attendance.
func (s *Service) mark(ctx context.Context, a attempt) (Record, error) {
	if a.secretCode == "" || a.email == "" {
		return Record{}, ErrMissingFields
	}
	if a.deviceID == "" {
		return Record{}, ErrDeviceRequired
	}

	evt, err := s.events.BySecretCode(ctx, a.secretCode)
	if err != nil {
		return Record{}, err
	}
	if evt == nil {
		return Record{}, ErrInvalidCode
	}
	if a.method == MethodQR {
		if !evt.QRModeEnabled {
			return Record{}, ErrQRDisabled
		}
		if a.qrEventID != evt.EventID && a.qrEventID != evt.ID {
			return Record{}, ErrQRMismatch
		}
	}

	now := s.now()
	if err := checkWindow(*evt, now); err != nil {
		return Record{}, err
	}
	if err := checkCodeWindow(*evt, now); err != nil {
		return Record{}, err
	}
	if err := checkGeofence(*evt, a.lat, a.lng); err != nil {
		return Record{}, err
	}

	student, err := s.students.ByEmail(ctx, a.email)
	if err != nil {
		return Record{}, apperr.Internalf("student by email: %w", err)
	}
	if student == nil {
		return Record{}, ErrStudentNotFound
	}

	if err := s.bindDevice(ctx, *student, a.deviceID); err != nil {
		// A device owned by someone else that already checked in here gets
		// the more specific message.
		if errors.Is(err, ErrDeviceElsewhere) {
			if used, uerr := s.deviceUsedByOther(ctx, *evt, a); uerr == nil && used {
				return Record{}, ErrDeviceUsedByOther
			}
		}
		return Record{}, err
	}

	used, err := s.deviceUsedByOther(ctx, *evt, a)
	if err != nil {
		return Record{}, err
	}
	if used {
		return Record{}, ErrDeviceUsedByOther
	}

	rec := Record{
		ID:           uuid.NewString(),
		EventID:      evt.EventID,
		StudentEmail: a.email,
		StudentName:  student.Name,
		USN:          student.USN,
		MarkedAt:     now.UTC(),
		Lat:          a.lat,
		Lng:          a.lng,
		DeviceID:     a.deviceID,
		Method:       a.method,
		Verified:     true,
	}
	inserted, err := s.repo.Insert(ctx, rec)
	if errors.Is(err, ErrDeviceConflict) {
		return Record{}, ErrDeviceUsedByOther
	}
	if err != nil {
		return Record{}, apperr.Internalf("insert attendance: %w", err)
	}
	if !inserted {
		return Record{}, ErrAlreadyMarked
	}
	return rec, nil
}

// deviceUsedByOther reports whether the device already checked in a
// different student for the event.
func (s *Service) deviceUsedByOther(ctx context.Context, evt events.Event, a attempt) (bool, error) {
	prior, err := s.repo.ByEventDevice(ctx, evt.Identifiers(), a.deviceID)
	if err != nil {
		return false, apperr.Internalf("attendance by device: %w", err)
	}
	return prior != nil && normalizeEmail(prior.StudentEmail) != a.email, nil
}

// bindDevice enforces device binding and binds the device on first use.
// The bind is conditional in storage, so two devices racing to claim the
// same student leave exactly one bound and the other rejected.
func (s *Service) bindDevice(ctx context.Context, student students.Student, deviceID string) error {
	if student.DeviceID != "" {
		if student.DeviceID != deviceID {
			return ErrWrongDevice
		}
		return nil
	}

	owner, err := s.students.ByDevice(ctx, deviceID)
	if err != nil {
		return apperr.Internalf("student by device: %w", err)
	}
	if owner != nil && normalizeEmail(owner.Email) != normalizeEmail(student.Email) {
		return ErrDeviceElsewhere
	}

	bound, err := s.students.BindDevice(ctx, student.Email, deviceID)
	if errors.Is(err, students.ErrDeviceTaken) {
		return ErrDeviceElsewhere
	}
	if err != nil {
		return apperr.Internalf("bind device: %w", err)
	}
	if bound {
		return nil
	}

	current, err := s.students.ByEmail(ctx, student.Email)
	if err != nil {
		return apperr.Internalf("student by email: %w", err)
	}
	if current == nil {
		return ErrStudentNotFound
	}
	if current.DeviceID != deviceID {
		return ErrWrongDevice
	}
	return nil
}

// MarkByStaff records attendance on a student's behalf. Time, code, location
// and device rules do not apply.
func (s *Service) MarkByStaff(ctx context.Context, claims auth.Claims, in StaffInput) (rec Record, err error) {
	defer func() { s.observe(MethodStaff, err) }()

	if !claims.HasRole(auth.RoleStaff, auth.RoleTeacher, auth.RoleAdmin) {
		return Record{}, apperr.ErrForbidden
	}
	email := normalizeEmail(in.StudentEmail)
	if strings.TrimSpace(in.EventID) == "" || email == "" {
		return Record{}, ErrStaffMissingFields
	}

	evt, err := s.events.Resolve(ctx, in.EventID)
	if err != nil {
		return Record{}, err
	}
	if evt == nil {
		return Record{}, ErrEventNotFound
	}

	student, err := s.students.ByEmail(ctx, email)
	if err != nil {
		return Record{}, apperr.Internalf("student by email: %w", err)
	}
	if student == nil {
		return Record{}, ErrStudentNotFound
	}

	exists, err := s.repo.Exists(ctx, evt.Identifiers(), email)
	if err != nil {
		return Record{}, apperr.Internalf("attendance exists: %w", err)
	}
	if exists {
		return Record{}, ErrStudentMarked
	}

	rec = Record{
		ID:           uuid.NewString(),
		EventID:      evt.EventID,
		StudentEmail: email,
		StudentName:  student.Name,
		USN:          student.USN,
		MarkedAt:     s.now().UTC(),
		Method:       MethodStaff,
		MarkedBy:     normalizeEmail(claims.Email),
		Verified:     true,
	}
	inserted, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return Record{}, apperr.Internalf("insert attendance: %w", err)
	}
	if !inserted {
		return Record{}, ErrStudentMarked
	}
	return rec, nil
}

// ListByEvent returns an event's attendance joined with current student
// profiles, newest first. Staff, teachers, admins and the event's creator may read it.
func (s *Service) ListByEvent(ctx context.Context, claims auth.Claims, eventID string) ([]Entry, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, ErrEventIDRequired
	}
	evt, err := s.events.Resolve(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if evt == nil {
		return nil, ErrEventNotFound
	}
	if !claims.HasRole(auth.RoleStaff, auth.RoleTeacher, auth.RoleAdmin) && !evt.OwnedBy(claims.Email) {
		return nil, apperr.ErrForbidden
	}

	records, err := s.repo.ListByEvent(ctx, evt.Identifiers())
	if err != nil {
		return nil, apperr.Internalf("list attendance: %w", err)
	}

	emails := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.StudentEmail]; ok || r.StudentEmail == "" {
			continue
		}
		seen[r.StudentEmail] = struct{}{}
		emails = append(emails, r.StudentEmail)
	}
	profiles, err := s.students.ByEmails(ctx, emails)
	if err != nil {
		return nil, apperr.Internalf("student profiles: %w", err)
	}

	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, joinProfile(r, profiles[r.StudentEmail]))
	}
	return out, nil
}

func joinProfile(r Record, p students.Student) Entry {
	name := firstNonEmpty(p.Name, r.StudentName, "Unknown Student")
	usn := firstNonEmpty(p.USN, r.USN, "N/A")
	return Entry{
		ID:       r.ID,
		EventID:  r.EventID,
		Email:    r.StudentEmail,
		Name:     name,
		USN:      usn,
		MarkedAt: r.MarkedAt,
		DeviceID: r.DeviceID,
		Method:   r.Method,
		MarkedBy: r.MarkedBy,
		Lat:      r.Lat,
		Lng:      r.Lng,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ListMine returns the calling student's history, newest first.
func (s *Service) ListMine(ctx context.Context, claims auth.Claims) ([]Record, error) {
	if !claims.HasRole(auth.RoleStudent) {
		return nil, apperr.ErrForbidden
	}
	records, err := s.repo.ListByStudent(ctx, normalizeEmail(claims.Email))
	if err != nil {
		return nil, apperr.Internalf("list my attendance: %w", err)
	}
	return records, nil
}
