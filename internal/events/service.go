package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
	"campusattend/internal/dbx"
)

const (
	// PermCreate is the staff capability required to create events.
	PermCreate = "events:create"

	defaultRadiusMeters = 200
	upcomingBuffer      = 2 * time.Hour
	upcomingLimit       = 40
	recentFallback      = 10
	idAttempts          = 3
)

var (
	ErrNotFound           = apperr.New(apperr.NotFound, "event_not_found", "Event not found")
	ErrCreateDenied       = apperr.New(apperr.Forbidden, "permission_denied", "You do not have permission to create events")
	ErrDeleteDenied       = apperr.New(apperr.Forbidden, "not_owner", "You can only delete events you created")
	ErrIdentifierRequired = apperr.New(apperr.Invalid, "missing_fields", "Event identifier is required")
)

// Store is the persistence the service needs.
type Store interface {
	Insert(ctx context.Context, evt Event) error
	ByEventID(ctx context.Context, eventID string) (*Event, error)
	ByID(ctx context.Context, id string) (*Event, error)
	BySecretCode(ctx context.Context, code string) (*Event, error)
	ListByCreator(ctx context.Context, email string) ([]Event, error)
	ListActiveSince(ctx context.Context, since time.Time, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, evt Event) (int64, error)
}

// PermissionChecker answers staff capability questions.
type PermissionChecker interface {
	HasPermission(ctx context.Context, email, permission string) (bool, error)
}

// Service implements the Event Registry.
type Service struct {
	repo  Store
	perms PermissionChecker
	cache Cache
	loc   *time.Location
	now   func() time.Time
}

// NewService wires the registry. Form datetimes without an offset are read in loc.
func NewService(repo Store, perms PermissionChecker, cache Cache, loc *time.Location) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, perms: perms, cache: cache, loc: loc, now: time.Now}
}

func (s *Service) canCreate(ctx context.Context, claims auth.Claims) error {
	if claims.HasRole(auth.RoleTeacher, auth.RoleAdmin) {
		return nil
	}
	if !claims.HasRole(auth.RoleStaff) {
		return apperr.ErrForbidden
	}
	ok, err := s.perms.HasPermission(ctx, claims.Email, PermCreate)
	if err != nil {
		return apperr.Internalf("check staff permission: %w", err)
	}
	if !ok {
		return ErrCreateDenied
	}
	return nil
}

// Create validates input and stores a new event owned by the requester.
func (s *Service) Create(ctx context.Context, claims auth.Claims, in CreateInput) (Created, error) {
	if err := s.canCreate(ctx, claims); err != nil {
		return Created{}, err
	}

	evt, err := s.validate(in)
	if err != nil {
		return Created{}, err
	}
	evt.ID = uuid.NewString()
	evt.CreatedBy = strings.ToLower(strings.TrimSpace(claims.Email))
	evt.CreatedAt = s.now().UTC()

	for attempt := 1; ; attempt++ {
		if evt.EventID, err = NewEventID(); err != nil {
			return Created{}, apperr.Internalf("generate event id: %w", err)
		}
		evt.SecretCode = ""
		if evt.SecretCodeEnabled {
			if evt.SecretCode, err = NewSecretCode(); err != nil {
				return Created{}, apperr.Internalf("generate secret code: %w", err)
			}
		}
		err = s.repo.Insert(ctx, evt)
		if err == nil {
			break
		}
		if !dbx.IsUniqueViolation(err, "") || attempt >= idAttempts {
			return Created{}, apperr.Internalf("insert event: %w", err)
		}
	}

	s.cache.Invalidate(ctx)
	return Created{ID: evt.ID, EventID: evt.EventID, SecretCode: evt.SecretCode}, nil
}

func (s *Service) validate(in CreateInput) (Event, error) {
	required := []struct{ name, value string }{
		{"title", in.Title},
		{"startTime", in.StartTime},
		{"endTime", in.EndTime},
		{"location", in.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return Event{}, apperr.Invalidf("missing_fields", "Missing required field: %s", f.name)
		}
	}

	start, errStart := ParseTime(in.StartTime, s.loc)
	end, errEnd := ParseTime(in.EndTime, s.loc)
	if errStart != nil || errEnd != nil {
		return Event{}, apperr.New(apperr.Invalid, "invalid_time", "Invalid event start or end time")
	}
	if !end.After(start) {
		return Event{}, apperr.New(apperr.Invalid, "invalid_time", "End time must be after start time")
	}

	radius := float64(defaultRadiusMeters)
	if in.RadiusMeters.Present() {
		r, ok := in.RadiusMeters.Float()
		if !ok || r <= 0 {
			return Event{}, apperr.New(apperr.Invalid, "invalid_radius", "Radius must be greater than zero")
		}
		radius = r
	}

	if in.LocationLat.Set() != in.LocationLng.Set() {
		return Event{}, apperr.New(apperr.Invalid, "invalid_coordinates", "Both latitude and longitude are required when providing coordinates")
	}
	var lat, lng *float64
	if in.LocationLat.Set() {
		la, okLat := in.LocationLat.Float()
		ln, okLng := in.LocationLng.Float()
		if !okLat || !okLng {
			return Event{}, apperr.New(apperr.Invalid, "invalid_coordinates", "Invalid latitude or longitude value")
		}
		lat, lng = &la, &ln
	}

	validFrom, err := optionalTime(in.CodeValidFrom, s.loc)
	if err != nil {
		return Event{}, err
	}
	validTill, err := optionalTime(in.CodeValidTill, s.loc)
	if err != nil {
		return Event{}, err
	}
	if validFrom != nil && validTill != nil && validTill.Before(*validFrom) {
		return Event{}, apperr.New(apperr.Invalid, "invalid_code_window", "Code validity end must be after its start")
	}

	codeEnabled := true
	if in.SecretCodeEnabled != nil {
		codeEnabled = *in.SecretCodeEnabled
	}

	return Event{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		StartTime:         start.UTC(),
		EndTime:           end.UTC(),
		Location:          strings.TrimSpace(in.Location),
		LocationLat:       lat,
		LocationLng:       lng,
		RadiusMeters:      radius,
		SecretCodeEnabled: codeEnabled,
		QRModeEnabled:     in.QRModeEnabled,
		CodeValidFrom:     validFrom,
		CodeValidTill:     validTill,
	}, nil
}

func optionalTime(v string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := ParseTime(v, loc)
	if err != nil {
		return nil, apperr.New(apperr.Invalid, "invalid_code_window", "Invalid code validity time")
	}
	t = t.UTC()
	return &t, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 instants and offset-less form values, the latter
// interpreted in loc.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}

// Resolve finds an event by human-readable id first, then by storage id.
// It returns nil when neither matches.
func (s *Service) Resolve(ctx context.Context, id string) (*Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	evt, err := s.repo.ByEventID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf("event by code: %w", err)
	}
	if evt != nil {
		return evt, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	evt, err = s.repo.ByID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf("event by id: %w", err)
	}
	return evt, nil
}

// Get is Resolve with a not-found error.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	if strings.TrimSpace(id) == "" {
		return Event{}, ErrIdentifierRequired
	}
	evt, err := s.Resolve(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if evt == nil {
		return Event{}, ErrNotFound
	}
	return *evt, nil
}

// BySecretCode returns the event an access code belongs to, or nil.
func (s *Service) BySecretCode(ctx context.Context, code string) (*Event, error) {
	evt, err := s.repo.BySecretCode(ctx, code)
	if err != nil {
		return nil, apperr.Internalf("event by secret code: %w", err)
	}
	return evt, nil
}

// Delete removes an event and its attendance. Admins may delete any event,
// everyone else only their own.
func (s *Service) Delete(ctx context.Context, claims auth.Claims, eventID, id string) error {
	eventID, id = strings.TrimSpace(eventID), strings.TrimSpace(id)
	if eventID == "" && id == "" {
		return ErrIdentifierRequired
	}
	var evt *Event
	var err error
	for _, candidate := range []string{eventID, id} {
		if evt, err = s.Resolve(ctx, candidate); err != nil {
			return err
		}
		if evt != nil {
			break
		}
	}
	if evt == nil {
		return ErrNotFound
	}
	if !claims.HasRole(auth.RoleAdmin) && !evt.OwnedBy(claims.Email) {
		return ErrDeleteDenied
	}
	if _, err := s.repo.Delete(ctx, *evt); err != nil {
		return apperr.Internalf("delete event: %w", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// ListMine returns events created by a teacher or admin.
func (s *Service) ListMine(ctx context.Context, claims auth.Claims) ([]Event, error) {
	if !claims.HasRole(auth.RoleTeacher, auth.RoleAdmin) {
		return nil, apperr.ErrForbidden
	}
	evts, err := s.repo.ListByCreator(ctx, claims.Email)
	if err != nil {
		return nil, apperr.Internalf("list my events: %w", err)
	}
	return evts, nil
}

// ListAll returns every event for staff, teachers and admins.
func (s *Service) ListAll(ctx context.Context, claims auth.Claims) ([]Event, error) {
	if !claims.HasRole(auth.RoleStaff, auth.RoleTeacher, auth.RoleAdmin) {
		return nil, apperr.ErrForbidden
	}
	evts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internalf("list events: %w", err)
	}
	return evts, nil
}

// ListUpcoming returns events that are still relevant (ending, starting or
// accepting codes no earlier than two hours ago), falling back to the most
// recent ones. Secret codes are stripped.
func (s *Service) ListUpcoming(ctx context.Context) ([]Event, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}
	evts, err := s.repo.ListActiveSince(ctx, s.now().Add(-upcomingBuffer), upcomingLimit)
	if err != nil {
		return nil, apperr.Internalf("list upcoming events: %w", err)
	}
	if len(evts) == 0 {
		if evts, err = s.repo.ListRecent(ctx, recentFallback); err != nil {
			return nil, apperr.Internalf("list recent events: %w", err)
		}
	}
	out := make([]Event, len(evts))
	for i, e := range evts {
		out[i] = e.Public()
	}
	s.cache.Set(ctx, out)
	return out, nil
}
