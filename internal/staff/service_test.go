package staff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
)

type memStore struct {
	recs       map[string]*Staff
	backfilled []string
}

func newMemStore(list ...Staff) *memStore {
	m := &memStore{recs: map[string]*Staff{}}
	for i := range list {
		s := list[i]
		m.recs[s.Email] = &s
	}
	return m
}

func (m *memStore) Insert(_ context.Context, s Staff) error {
	m.recs[s.Email] = &s
	return nil
}

func (m *memStore) ByEmail(_ context.Context, email string) (*Staff, error) {
	s, ok := m.recs[email]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListByCreator(_ context.Context, owner string) ([]Staff, error) {
	var out []Staff
	for _, s := range m.recs {
		if s.CreatedBy == owner {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) owned(email, owner string) *Staff {
	s, ok := m.recs[email]
	if !ok || s.CreatedBy != owner {
		return nil
	}
	return s
}

func (m *memStore) Delete(_ context.Context, email, owner string) (bool, error) {
	if m.owned(email, owner) == nil {
		return false, nil
	}
	delete(m.recs, email)
	return true, nil
}

func (m *memStore) SetPermissions(_ context.Context, email, owner string, perms []string) (bool, error) {
	s := m.owned(email, owner)
	if s == nil {
		return false, nil
	}
	s.Permissions = perms
	return true, nil
}

func (m *memStore) SetStatus(_ context.Context, email, owner, status string) (bool, error) {
	s := m.owned(email, owner)
	if s == nil {
		return false, nil
	}
	s.Status = status
	return true, nil
}

func (m *memStore) BackfillPermissions(_ context.Context, email string, perms []string) error {
	m.backfilled = append(m.backfilled, email)
	if s, ok := m.recs[email]; ok && s.Permissions == nil {
		s.Permissions = perms
	}
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(email, role string) (string, error) { return role + ":" + email, nil }

var (
	teacherA = auth.Claims{Email: "a@campus.edu", Role: auth.RoleTeacher}
	teacherB = auth.Claims{Email: "b@campus.edu", Role: auth.RoleTeacher}
)

func TestAdd(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, stubTokens{})

	rec, err := svc.Add(context.Background(), teacherA, AddInput{Email: " Helper@Campus.edu", Name: "Helper", Permissions: []string{"Attendance:Read", "attendance:read", " "}})
	require.NoError(t, err)
	assert.Equal(t, "helper@campus.edu", rec.Email)
	assert.Equal(t, []string{"attendance:read"}, rec.Permissions)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, "a@campus.edu", rec.CreatedBy)

	_, err = svc.Add(context.Background(), teacherB, AddInput{Email: "helper@campus.edu", Name: "Dup"})
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	_, err = svc.Add(context.Background(), teacherA, AddInput{Email: "x@campus.edu"})
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	_, err = svc.Add(context.Background(), auth.Claims{Email: "s@campus.edu", Role: auth.RoleStaff}, AddInput{Email: "y@campus.edu", Name: "Y"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAdd_DefaultPermissionsWhenOmitted(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, stubTokens{})

	rec, err := svc.Add(context.Background(), teacherA, AddInput{Email: "h@campus.edu", Name: "H"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPermissions, rec.Permissions)

	rec, err = svc.Add(context.Background(), teacherA, AddInput{Email: "e@campus.edu", Name: "E", Permissions: []string{}})
	require.NoError(t, err)
	assert.Empty(t, rec.Permissions)
	assert.NotNil(t, rec.Permissions)
}

func TestScopedMutations(t *testing.T) {
	store := newMemStore(Staff{Email: "h@campus.edu", Name: "H", CreatedBy: "a@campus.edu", Status: StatusActive})
	svc := NewService(store, stubTokens{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdatePermissions(ctx, teacherB, "h@campus.edu", []string{"events:create"}), ErrNotFound)
	assert.ErrorIs(t, svc.SetStatus(ctx, teacherB, "h@campus.edu", "inactive"), ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, teacherB, "h@campus.edu"), ErrNotFound)

	require.NoError(t, svc.UpdatePermissions(ctx, teacherA, "H@campus.edu", []string{"EVENTS:CREATE"}))
	assert.Equal(t, []string{"events:create"}, store.recs["h@campus.edu"].Permissions)

	err := svc.UpdatePermissions(ctx, teacherA, "h@campus.edu", nil)
	msg, _ := apperr.Public(err)
	assert.Equal(t, "Email and permissions required", msg)

	assert.ErrorIs(t, svc.SetStatus(ctx, teacherA, "h@campus.edu", "paused"), ErrInvalidStatus)
	require.NoError(t, svc.SetStatus(ctx, teacherA, "h@campus.edu", "Inactive"))
	assert.Equal(t, StatusInactive, store.recs["h@campus.edu"].Status)

	list, err := svc.List(ctx, teacherA)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, teacherB)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Remove(ctx, teacherA, "h@campus.edu"))
	assert.Empty(t, store.recs)
}

func TestLogin(t *testing.T) {
	store := newMemStore(
		Staff{Email: "legacy@campus.edu", Name: "Legacy", CreatedBy: "a@campus.edu"},
		Staff{Email: "off@campus.edu", Name: "Off", Status: StatusInactive, Permissions: []string{"events:create"}},
		Staff{Email: "on@campus.edu", Name: "On", Status: StatusActive, Permissions: []string{"attendance:read"}},
	)
	svc := NewService(store, stubTokens{})
	ctx := context.Background()

	res, err := svc.Login(ctx, "Legacy@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, "staff:legacy@campus.edu", res.Token)
	assert.Equal(t, DefaultPermissions, res.Permissions)
	assert.Equal(t, "Legacy", res.Name)
	assert.Equal(t, []string{"legacy@campus.edu"}, store.backfilled)

	res, err = svc.Login(ctx, "on@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, []string{"attendance:read"}, res.Permissions)
	assert.Len(t, store.backfilled, 1)

	_, err = svc.Login(ctx, "off@campus.edu")
	assert.ErrorIs(t, err, ErrNotProvisioned)
	assert.Equal(t, 401, apperr.HTTPStatus(err))

	_, err = svc.Login(ctx, "ghost@campus.edu")
	assert.ErrorIs(t, err, ErrNotProvisioned)
}

func TestLogin_RevokedPermissionsStayEmpty(t *testing.T) {
	store := newMemStore(Staff{Email: "revoked@campus.edu", Name: "Revoked", Status: StatusActive, Permissions: []string{}})
	svc := NewService(store, stubTokens{})

	res, err := svc.Login(context.Background(), "revoked@campus.edu")
	require.NoError(t, err)
	assert.Empty(t, res.Permissions)
	assert.Empty(t, store.backfilled)
}

func TestHasPermission(t *testing.T) {
	store := newMemStore(
		Staff{Email: "on@campus.edu", Status: StatusActive, Permissions: []string{"events:create"}},
		Staff{Email: "off@campus.edu", Status: StatusInactive, Permissions: []string{"events:create"}},
		Staff{Email: "ro@campus.edu", Permissions: []string{"attendance:read"}},
	)
	svc := NewService(store, stubTokens{})
	ctx := context.Background()

	for email, want := range map[string]bool{
		"on@campus.edu":    true,
		"ON@campus.edu":    true,
		"off@campus.edu":   false,
		"ro@campus.edu":    false,
		"ghost@campus.edu": false,
	} {
		got, err := svc.HasPermission(ctx, email, "events:create")
		require.NoError(t, err)
		assert.Equal(t, want, got, email)
	}
}
