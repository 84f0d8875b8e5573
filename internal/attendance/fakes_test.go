package attendance

import (
	"context"
	"sync"

	"campusattend/internal/events"
	"campusattend/internal/students"
)

type fakeEvents struct {
	list []events.Event
}

func (f *fakeEvents) BySecretCode(_ context.Context, code string) (*events.Event, error) {
	for _, e := range f.list {
		if e.SecretCode != "" && e.SecretCode == code {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeEvents) Resolve(_ context.Context, id string) (*events.Event, error) {
	for _, e := range f.list {
		if e.EventID == id || e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeStudents struct {
	mu      sync.Mutex
	byEmail map[string]*students.Student
	bindErr error
	// onBind runs before a bind is applied, simulating a concurrent writer.
	onBind func(email string)
}

func newFakeStudents(list ...students.Student) *fakeStudents {
	f := &fakeStudents{byEmail: map[string]*students.Student{}}
	for i := range list {
		s := list[i]
		f.byEmail[s.Email] = &s
	}
	return f
}

func (f *fakeStudents) ByEmail(_ context.Context, email string) (*students.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudents) ByDevice(_ context.Context, deviceID string) (*students.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byEmail {
		if s.DeviceID == deviceID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStudents) ByEmails(_ context.Context, emails []string) (map[string]students.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]students.Student{}
	for _, e := range emails {
		if s, ok := f.byEmail[e]; ok {
			out[e] = *s
		}
	}
	return out, nil
}

func (f *fakeStudents) BindDevice(_ context.Context, email, deviceID string) (bool, error) {
	if f.onBind != nil {
		f.onBind(email)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bindErr != nil {
		return false, f.bindErr
	}
	for _, s := range f.byEmail {
		if s.DeviceID == deviceID && s.Email != email {
			return false, students.ErrDeviceTaken
		}
	}
	s, ok := f.byEmail[email]
	if !ok || s.DeviceID != "" {
		return false, nil
	}
	s.DeviceID = deviceID
	return true, nil
}

// fakeStore enforces the same unique keys as the attendance table.
type fakeStore struct {
	mu      sync.Mutex
	records []Record
}

func (f *fakeStore) Insert(_ context.Context, rec Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EventID == rec.EventID && r.StudentEmail == rec.StudentEmail {
			return false, nil
		}
	}
	for _, r := range f.records {
		if rec.DeviceID != "" && r.EventID == rec.EventID && r.DeviceID == rec.DeviceID {
			return false, ErrDeviceConflict
		}
	}
	f.records = append(f.records, rec)
	return true, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) ByEventDevice(_ context.Context, ids []string, deviceID string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if contains(ids, r.EventID) && r.DeviceID == deviceID {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Exists(_ context.Context, ids []string, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if contains(ids, r.EventID) && r.StudentEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByEvent(_ context.Context, ids []string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for i := len(f.records) - 1; i >= 0; i-- {
		if contains(ids, f.records[i].EventID) {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListByStudent(_ context.Context, email string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].StudentEmail == email {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) CheckIn(method, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, method+":"+outcome)
}
