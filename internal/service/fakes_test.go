package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
	"github.com/noah-isme/course-registration-api/internal/repository"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type auditEntry struct {
	Actor    string
	Action   string
	Resource string
	Details  string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Record(_ context.Context, actor models.Actor, action, resource, details string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{Actor: actor.MatricNumber, Action: action, Resource: resource, Details: details})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type fakeStudentStore struct {
	byID    map[string]*models.Student
	updated []models.Student
}

func newFakeStudentStore(students ...models.Student) *fakeStudentStore {
	s := &fakeStudentStore{byID: map[string]*models.Student{}}
	for i := range students {
		st := students[i]
		s.byID[st.ID] = &st
	}
	return s
}

func (s *fakeStudentStore) FindByID(_ context.Context, id string) (*models.Student, error) {
	if st, ok := s.byID[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStudentStore) FindByMatric(_ context.Context, matric string) (*models.Student, error) {
	for _, st := range s.byID {
		if st.MatricNumber == matric {
			cp := *st
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStudentStore) ExistsByMatric(ctx context.Context, matric string) (bool, error) {
	_, err := s.FindByMatric(ctx, matric)
	return err == nil, nil
}

func (s *fakeStudentStore) Create(_ context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "stu-" + student.MatricNumber
	}
	cp := *student
	s.byID[student.ID] = &cp
	return nil
}

func (s *fakeStudentStore) UpdateProfile(_ context.Context, student *models.Student) error {
	cp := *student
	s.byID[student.ID] = &cp
	s.updated = append(s.updated, cp)
	return nil
}

func (s *fakeStudentStore) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, st := range s.byID {
		if filter.Level != "" && st.Level != filter.Level {
			continue
		}
		out = append(out, *st)
	}
	return out, len(out), nil
}

type regKey struct {
	student  string
	semester models.Semester
}

type fakeRegistrationStore struct {
	rows map[regKey]*models.Registration
}

func newFakeRegistrationStore() *fakeRegistrationStore {
	return &fakeRegistrationStore{rows: map[regKey]*models.Registration{}}
}

func (r *fakeRegistrationStore) put(studentID string, semester models.Semester, status models.RegistrationStatus, courses []models.Course) {
	reg := &models.Registration{StudentID: studentID, Semester: semester, Status: status}
	_ = reg.SetCourses(courses)
	r.rows[regKey{studentID, semester}] = reg
}

func (r *fakeRegistrationStore) Get(_ context.Context, studentID string, semester models.Semester) (*models.Registration, error) {
	if reg, ok := r.rows[regKey{studentID, semester}]; ok {
		cp := *reg
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRegistrationStore) Submit(_ context.Context, reg *models.Registration) (bool, error) {
	key := regKey{reg.StudentID, reg.Semester}
	if existing, ok := r.rows[key]; ok && existing.Status.Locked() {
		return false, nil
	}
	cp := *reg
	cp.Status = models.RegistrationPending
	r.rows[key] = &cp
	return true, nil
}

func (r *fakeRegistrationStore) SetStatus(_ context.Context, studentID string, semester models.Semester, status models.RegistrationStatus, reviewer string) (bool, error) {
	reg, ok := r.rows[regKey{studentID, semester}]
	if !ok {
		return false, nil
	}
	reg.Status = status
	reg.ReviewedBy = &reviewer
	return true, nil
}

func (r *fakeRegistrationStore) Reset(_ context.Context, studentID string, semester models.Semester, _ string) error {
	if reg, ok := r.rows[regKey{studentID, semester}]; ok {
		reg.Status = models.RegistrationNotStarted
		_ = reg.SetCourses(nil)
	}
	return nil
}

func (r *fakeRegistrationStore) ListByStudents(_ context.Context, ids []string) ([]models.Registration, error) {
	var out []models.Registration
	for _, id := range ids {
		for _, sem := range models.AllSemesters() {
			if reg, ok := r.rows[regKey{id, sem}]; ok {
				out = append(out, *reg)
			}
		}
	}
	return out, nil
}

type fakeDraftStore struct {
	sessions map[regKey]registration.Session
	deleted  []regKey
	saveErr  error
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{sessions: map[regKey]registration.Session{}}
}

func (d *fakeDraftStore) Load(_ context.Context, studentID string, semester models.Semester) (*registration.Session, error) {
	s, ok := d.sessions[regKey{studentID, semester}]
	if !ok {
		return nil, repository.ErrDraftNotFound
	}
	s.Selection = append(registration.Selection{}, s.Selection...)
	return &s, nil
}

func (d *fakeDraftStore) Save(_ context.Context, session *registration.Session) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	d.sessions[regKey{session.StudentID, session.Semester}] = *session
	return nil
}

func (d *fakeDraftStore) Delete(_ context.Context, studentID string, semester models.Semester) error {
	key := regKey{studentID, semester}
	delete(d.sessions, key)
	d.deleted = append(d.deleted, key)
	return nil
}

type fakeTokenStore struct {
	tokens  map[string]*models.RegistrationToken
	created []models.RegistrationToken
}

func newFakeTokenStore(tokens ...models.RegistrationToken) *fakeTokenStore {
	s := &fakeTokenStore{tokens: map[string]*models.RegistrationToken{}}
	for i := range tokens {
		t := tokens[i]
		s.tokens[t.Code] = &t
	}
	return s
}

func (s *fakeTokenStore) FindByCode(_ context.Context, code string) (*models.RegistrationToken, error) {
	if t, ok := s.tokens[code]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeTokenStore) MarkUsed(_ context.Context, id string, semester models.Semester) (bool, error) {
	for _, t := range s.tokens {
		if t.ID == id {
			if t.Used {
				return false, nil
			}
			t.Used = true
			sem := semester
			t.UsedSemester = &sem
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTokenStore) HasRedeemed(_ context.Context, matric string, tokenType models.TokenType, semester models.Semester) (bool, error) {
	for _, t := range s.tokens {
		if t.MatricNumber == matric && t.Type == tokenType && t.Used && t.UsedSemester != nil && *t.UsedSemester == semester {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTokenStore) Create(_ context.Context, token *models.RegistrationToken) error {
	token.ID = "tok-" + token.Code
	s.created = append(s.created, *token)
	cp := *token
	s.tokens[token.Code] = &cp
	return nil
}

func (s *fakeTokenStore) List(_ context.Context, matric string, _ int) ([]models.RegistrationToken, error) {
	var out []models.RegistrationToken
	for _, t := range s.tokens {
		if matric == "" || t.MatricNumber == matric {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	courses []models.Course
}

func (c fakeCatalog) Find(_ context.Context, _ models.CatalogFilter, code string) (*models.Course, error) {
	sel := registration.Selection(c.courses)
	if course, ok := sel.Find(code); ok {
		return &course, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course "+code+" not offered")
}

type fakeSettings struct {
	cfg models.RegistrationConfig
}

func (f fakeSettings) Get(context.Context) (*models.RegistrationConfig, error) {
	cfg := f.cfg
	return &cfg, nil
}

func course(code string, units int, day, slot string) models.Course {
	return models.Course{
		CourseCode:  code,
		CourseTitle: code + " title",
		Units:       units,
		Lecturer:    "Dr. Ade",
		Schedule:    models.CourseSchedule{Day: day, Time: slot, Venue: "LT1"},
	}
}

type memCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			c.deleted = append(c.deleted, k)
		}
	}
	return nil
}
