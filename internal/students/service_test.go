package students

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/apperr"
	"campusattend/internal/auth"
)

type fakeStore struct {
	students map[string]*Student
	created  []string
	err      error
}

func newFakeStore(list ...Student) *fakeStore {
	f := &fakeStore{students: map[string]*Student{}}
	for i := range list {
		s := list[i]
		f.students[s.Email] = &s
	}
	return f
}

func (f *fakeStore) ByEmail(_ context.Context, email string) (*Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.students[email]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, email string) error {
	f.created = append(f.created, email)
	f.students[email] = &Student{Email: email}
	return nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, email string, p Profile) (bool, error) {
	s, ok := f.students[email]
	if !ok {
		return false, nil
	}
	s.Name, s.USN, s.Branch, s.Year, s.ProfileComplete = p.Name, p.USN, p.Branch, p.Year, true
	return true, nil
}

func (f *fakeStore) ResetDevice(_ context.Context, email string) (bool, error) {
	s, ok := f.students[email]
	if !ok {
		return false, nil
	}
	s.DeviceID = ""
	return true, nil
}

type stubTokens struct{}

func (stubTokens) Issue(email, role string) (string, error) { return role + ":" + email, nil }

func TestLogin_CreatesStudentOnFirstUse(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, stubTokens{}, "campus.edu")

	res, err := svc.Login(context.Background(), "  1BY23AI001@Campus.edu ")
	require.NoError(t, err)
	assert.Equal(t, "student:1by23ai001@campus.edu", res.Token)
	assert.Equal(t, auth.RoleStudent, res.Role)
	assert.False(t, res.ProfileComplete)
	assert.Equal(t, []string{"1by23ai001@campus.edu"}, store.created)

	_, err = svc.Login(context.Background(), "1by23ai001@campus.edu")
	require.NoError(t, err)
	assert.Len(t, store.created, 1)
}

func TestLogin_ReportsProfileComplete(t *testing.T) {
	store := newFakeStore(Student{Email: "a@campus.edu", ProfileComplete: true})
	svc := NewService(store, stubTokens{}, "@campus.edu")

	res, err := svc.Login(context.Background(), "a@campus.edu")
	require.NoError(t, err)
	assert.True(t, res.ProfileComplete)
}

func TestLogin_RejectsOtherDomains(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, stubTokens{}, "campus.edu")

	_, err := svc.Login(context.Background(), "someone@gmail.com")
	require.Error(t, err)
	msg, code := apperr.Public(err)
	assert.Equal(t, "Please use your campus.edu email address", msg)
	assert.Equal(t, "invalid_domain", code)

	_, err = svc.Login(context.Background(), "evil@notcampus.edu")
	require.Error(t, err)

	_, err = svc.Login(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.Empty(t, store.created)
}

func TestLogin_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("db down")
	svc := NewService(store, stubTokens{}, "campus.edu")

	_, err := svc.Login(context.Background(), "a@campus.edu")
	require.Error(t, err)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	msg, _ := apperr.Public(err)
	assert.Equal(t, "Server error", msg)
}

func TestProfile(t *testing.T) {
	store := newFakeStore(Student{Email: "a@campus.edu"})
	svc := NewService(store, stubTokens{}, "campus.edu")
	student := auth.Claims{Email: "a@campus.edu", Role: auth.RoleStudent}

	err := svc.UpdateProfile(context.Background(), student, Profile{Name: " Asha ", USN: "1by23ai001", Branch: "AI", Year: "2"})
	require.NoError(t, err)

	got, err := svc.Profile(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, "1BY23AI001", got.USN)
	assert.True(t, got.ProfileComplete)

	err = svc.UpdateProfile(context.Background(), student, Profile{USN: "x"})
	msg, _ := apperr.Public(err)
	assert.Equal(t, "Missing required field: name", msg)

	_, err = svc.Profile(context.Background(), auth.Claims{Email: "t@campus.edu", Role: auth.RoleTeacher})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Profile(context.Background(), auth.Claims{Email: "ghost@campus.edu", Role: auth.RoleStudent})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetDevice(t *testing.T) {
	store := newFakeStore(Student{Email: "a@campus.edu", DeviceID: "dev-1"})
	svc := NewService(store, stubTokens{}, "campus.edu")

	err := svc.ResetDevice(context.Background(), auth.Claims{Email: "t@campus.edu", Role: auth.RoleTeacher}, "a@campus.edu")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "dev-1", store.students["a@campus.edu"].DeviceID)

	err = svc.ResetDevice(context.Background(), auth.Claims{Email: "root@campus.edu", Role: auth.RoleAdmin}, "A@campus.edu")
	require.NoError(t, err)
	assert.Empty(t, store.students["a@campus.edu"].DeviceID)

	err = svc.ForceResetDevice(context.Background(), "nobody@campus.edu")
	assert.ErrorIs(t, err, ErrNotFound)
}
