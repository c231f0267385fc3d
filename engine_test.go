package registrar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/seed"
	"github.com/xraph/registrar/store/file"
	"github.com/xraph/registrar/store/memory"
	"github.com/xraph/registrar/user"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store, *fakeClock) {
	t.Helper()
	s := memory.New()
	clk := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	base := []Option{
		WithStore(s),
		WithSeed(seed.Empty),
		WithClock(clk.now),
		WithLogger(quietLogger()),
	}
	eng, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	return eng, s, clk
}

func mustAddUser(t *testing.T, eng *Engine, u *user.User) {
	t.Helper()
	if err := eng.AddUser(context.Background(), u); err != nil {
		t.Fatalf("add user %s: %v", u.Code, err)
	}
}

func mustAddModule(t *testing.T, eng *Engine, m *module.Module) {
	t.Helper()
	if err := eng.AddModule(context.Background(), m); err != nil {
		t.Fatalf("add module %s: %v", m.Code, err)
	}
}

func student(code string) *user.User {
	return user.NewStudent(code, "Lina", "Cherif", user.StudentInfo{Year: 1, Speciality: "Informatique"})
}

func professor(code string) *user.User {
	return user.NewProfessor(code, "Nadia", "Benali", user.ProfessorInfo{Department: "Informatique"})
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ──────────────────────────────────────────────────
// Construction and startup
// ──────────────────────────────────────────────────

func TestNew_RequiresStore(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}

func TestNew_FillsConfigDefaults(t *testing.T) {
	eng, _, _ := newTestEngine(t, WithConfig(Config{CacheTTL: time.Second}))
	cfg := eng.Config()
	if cfg.CacheTTL != time.Second {
		t.Fatalf("expected explicit ttl kept, got %v", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 100 || cfg.NotificationRetention != 30*24*time.Hour {
		t.Fatalf("expected defaults filled, got %+v", cfg)
	}
}

func TestOpen_SeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	eng, err := New(WithStore(s), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Open(ctx); err != nil {
		t.Fatal(err)
	}

	if got := len(eng.Users(ctx)); got != 7 {
		t.Fatalf("expected 7 demo users, got %d", got)
	}
	if s.SaveCount(memory.Users) != 1 || s.SaveCount(memory.Enrollments) != 1 {
		t.Fatal("expected every collection saved once after seeding")
	}
	p, ok := eng.GetUser(ctx, "P001")
	if !ok || len(p.Professor.Modules) != 2 {
		t.Fatalf("expected P001 to teach two modules, got %+v", p)
	}
	admin, _ := eng.GetUser(ctx, "A001")
	if !admin.CheckPassword(seed.DemoPassword) {
		t.Fatal("expected demo password to work")
	}
}

func TestOpen_KeepsExistingData(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.SaveUsers(ctx, []*user.User{student("S1")}); err != nil {
		t.Fatal(err)
	}

	eng, err := New(WithStore(s), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Open(ctx); err != nil {
		t.Fatal(err)
	}
	users := eng.Users(ctx)
	if len(users) != 1 || users[0].Code != "S1" {
		t.Fatalf("expected persisted user only, got %d users", len(users))
	}
}

// ──────────────────────────────────────────────────
// Scenarios
// ──────────────────────────────────────────────────

func TestScenarioA_ModuleAssignment(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, professor("P1"))
	hub := eng.Notifications()

	mustAddModule(t, eng, &module.Module{Code: "GL01", Name: "Génie logiciel", Credits: 4, Coefficient: 2, Semester: 3})
	if got := len(hub.ByType("P1", notification.TypeModuleAssigned)); got != 0 {
		t.Fatalf("expected no assignment notification, got %d", got)
	}

	if err := eng.UpdateModule(ctx, &module.Module{Code: "GL01", Name: "Génie logiciel", Credits: 4, Coefficient: 2, Semester: 3, ProfessorCode: "P1"}); err != nil {
		t.Fatal(err)
	}
	if got := len(hub.ByType("P1", notification.TypeModuleAssigned)); got != 1 {
		t.Fatalf("expected exactly one assignment notification, got %d", got)
	}
	p, _ := eng.GetUser(ctx, "P1")
	if !p.TeachesModule("GL01") {
		t.Fatal("expected GL01 in P1's taught list")
	}

	// The professor is re-notified even though nothing changed.
	if err := eng.UpdateModule(ctx, &module.Module{Code: "GL01", Name: "Génie logiciel", Credits: 5, Coefficient: 2, Semester: 3, ProfessorCode: "P1"}); err != nil {
		t.Fatal(err)
	}
	if got := len(hub.ByType("P1", notification.TypeModuleAssigned)); got != 2 {
		t.Fatalf("expected a second assignment notification, got %d", got)
	}
}

func TestScenarioB_AddGrade(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 14})

	grades := eng.StudentGrades(ctx, "S1")
	if len(grades) != 1 || grades[0].Value != 14 {
		t.Fatalf("expected one grade of 14, got %+v", grades)
	}
	list := eng.Notifications().ListFor("S1")
	if len(list) != 1 {
		t.Fatalf("expected one notification, got %d", len(list))
	}
	n := list[0]
	if n.Type != notification.TypeGradeAdded || n.Priority != notification.PriorityHigh {
		t.Fatalf("unexpected notification %+v", n)
	}
	want := "Professeur a saisi votre note EXAM en M1 : 14.00/20."
	if n.Message != want {
		t.Fatalf("expected %q, got %q", want, n.Message)
	}
}

func TestScenarioC_UserCacheExpiry(t *testing.T) {
	ctx := context.Background()
	eng, _, clk := newTestEngine(t, WithConfig(Config{CacheTTL: 100 * time.Millisecond}))
	mustAddUser(t, eng, student("S1"))

	if _, ok := eng.GetUser(ctx, "S1"); !ok {
		t.Fatal("expected S1")
	}
	hits := eng.CacheStats().Hits
	if _, ok := eng.GetUser(ctx, "S1"); !ok {
		t.Fatal("expected S1")
	}
	if eng.CacheStats().Hits != hits+1 {
		t.Fatal("expected second read to hit the cache")
	}

	clk.advance(150 * time.Millisecond)
	misses := eng.CacheStats().Misses
	if _, ok := eng.GetUser(ctx, "S1"); !ok {
		t.Fatal("expected S1 reloaded from the collection")
	}
	if got := eng.CacheStats().Misses - misses; got != 1 {
		t.Fatalf("expected exactly one more miss, got %d", got)
	}
}

func TestScenarioD_DeleteStudentCascades(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))
	mustAddUser(t, eng, student("S2"))
	day := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 12})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M2", Type: grade.TypeContinuous, Value: 9})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S2", ModuleCode: "M1", Type: grade.TypeExam, Value: 15})
	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: day, Session: absence.SessionTD})
	for _, m := range []string{"M1", "M2", "M3"} {
		if err := eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: m}); err != nil {
			t.Fatal(err)
		}
	}
	if err := eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S2", ModuleCode: "M1"}); err != nil {
		t.Fatal(err)
	}

	if err := eng.DeleteUser(ctx, "S1"); err != nil {
		t.Fatal(err)
	}

	if n := len(eng.StudentGrades(ctx, "S1")); n != 0 {
		t.Fatalf("expected no grades for S1, got %d", n)
	}
	if n := len(eng.StudentAbsences(ctx, "S1")); n != 0 {
		t.Fatalf("expected no absences for S1, got %d", n)
	}
	if n := len(eng.StudentEnrollments(ctx, "S1")); n != 0 {
		t.Fatalf("expected no enrollments for S1, got %d", n)
	}
	if _, ok := eng.GetUser(ctx, "S1"); ok {
		t.Fatal("expected S1 to be gone")
	}
	if len(eng.StudentGrades(ctx, "S2")) != 1 || len(eng.StudentEnrollments(ctx, "S2")) != 1 {
		t.Fatal("expected S2's records untouched")
	}

	if err := eng.DeleteUser(ctx, "S1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Cascades
// ──────────────────────────────────────────────────

func TestDeleteModuleCascades(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, professor("P1"))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})
	mustAddModule(t, eng, &module.Module{Code: "M2", Name: "BD", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})

	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 12})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M2", Type: grade.TypeExam, Value: 13})
	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: time.Now(), Session: absence.SessionTP})
	_ = eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: "M1"})

	if err := eng.DeleteModule(ctx, "M1"); err != nil {
		t.Fatal(err)
	}

	if _, ok := eng.GetModule(ctx, "M1"); ok {
		t.Fatal("expected M1 gone")
	}
	if n := len(eng.ModuleGrades(ctx, "M1")); n != 0 {
		t.Fatalf("expected no grades in M1, got %d", n)
	}
	if n := len(eng.ModuleGrades(ctx, "M2")); n != 1 {
		t.Fatalf("expected M2's grade kept, got %d", n)
	}
	if len(eng.Absences(ctx)) != 0 || len(eng.Enrollments(ctx)) != 0 {
		t.Fatal("expected M1's absences and enrollments gone")
	}
	p, _ := eng.GetUser(ctx, "P1")
	if p.TeachesModule("M1") || !p.TeachesModule("M2") {
		t.Fatalf("unexpected taught list %v", p.Professor.Modules)
	}

	if err := eng.DeleteModule(ctx, "M1"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestDeleteProfessorUnassignsModules(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, professor("P1"))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})

	// Warm the cache so the unassignment must invalidate it.
	if m, _ := eng.GetModule(ctx, "M1"); m.ProfessorCode != "P1" {
		t.Fatal("expected M1 assigned to P1")
	}

	if err := eng.DeleteUser(ctx, "P1"); err != nil {
		t.Fatal(err)
	}
	m, ok := eng.GetModule(ctx, "M1")
	if !ok {
		t.Fatal("expected M1 kept")
	}
	if m.IsAssigned() {
		t.Fatalf("expected M1 unassigned, got %q", m.ProfessorCode)
	}
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

func TestAddUser(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))

	u, _ := eng.GetUser(ctx, "S1")
	if u.PasswordHash == "" || u.CreatedAt.IsZero() {
		t.Fatalf("expected hash and creation time, got %+v", u)
	}
	welcome := eng.Notifications().ByType("S1", notification.TypeAccountCreated)
	if len(welcome) != 1 || !strings.Contains(welcome[0].Message, "Mot de passe temporaire : ") {
		t.Fatalf("expected welcome with temporary password, got %+v", welcome)
	}
	temporary := welcome[0].Message[strings.LastIndex(welcome[0].Message, " ")+1:]
	if !u.CheckPassword(temporary) {
		t.Fatal("expected the temporary password to match the stored hash")
	}

	if err := eng.AddUser(ctx, student("S1")); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestAddUserWithPasswordSendsPlaceholder(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	u := student("S1")
	if err := u.SetPassword("secret"); err != nil {
		t.Fatal(err)
	}
	mustAddUser(t, eng, u)

	welcome := eng.Notifications().ByType("S1", notification.TypeAccountCreated)
	if len(welcome) != 1 || !strings.HasSuffix(welcome[0].Message, "Mot de passe temporaire : "+notification.PasswordPlaceholder) {
		t.Fatalf("expected welcome with password placeholder, got %+v", welcome)
	}
	stored, _ := eng.GetUser(ctx, "S1")
	if !stored.CheckPassword("secret") {
		t.Fatal("expected the supplied password kept")
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	eng, _, clk := newTestEngine(t)
	mustAddUser(t, eng, professor("P1"))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})
	before, _ := eng.GetUser(ctx, "P1")
	clk.advance(time.Hour)

	changed := professor("P1")
	changed.LastName = "Benali-Haddad"
	if err := eng.UpdateUser(ctx, changed); err != nil {
		t.Fatal(err)
	}

	after, _ := eng.GetUser(ctx, "P1")
	if after.LastName != "Benali-Haddad" {
		t.Fatal("expected cached user invalidated")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) || after.PasswordHash != before.PasswordHash {
		t.Fatal("expected creation time and password kept")
	}
	if !after.TeachesModule("M1") {
		t.Fatal("expected taught list kept")
	}
	if got := len(eng.Notifications().ByType("P1", notification.TypeAccountModified)); got != 1 {
		t.Fatalf("expected one account-modified notification, got %d", got)
	}

	if err := eng.UpdateUser(ctx, student("nobody")); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Grades, absences, enrollments
// ──────────────────────────────────────────────────

func TestUpdateGradeUpserts(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam, Value: 8})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeContinuous, Value: 11})

	eng.UpdateGrade(ctx, &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam, Value: 16})

	var exams []*grade.Grade
	for _, g := range eng.StudentGrades(ctx, "S") {
		if g.Type == grade.TypeExam {
			exams = append(exams, g)
		}
	}
	if len(exams) != 1 || exams[0].Value != 16 {
		t.Fatalf("expected one EXAM grade of 16, got %+v", exams)
	}
	if len(eng.StudentGrades(ctx, "S")) != 2 {
		t.Fatal("expected the continuous grade kept")
	}
	if got := len(eng.Notifications().ByType("S", notification.TypeGradeModified)); got != 1 {
		t.Fatalf("expected one grade-modified notification, got %d", got)
	}

	// Upsert with no prior grade inserts.
	eng.UpdateGrade(ctx, &grade.Grade{StudentCode: "T", ModuleCode: "M", Type: grade.TypeExam, Value: 10})
	if len(eng.StudentGrades(ctx, "T")) != 1 {
		t.Fatal("expected inserted grade")
	}
}

func TestAddGradeKeepsOneGradePerKey(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam, Value: 8})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam, Value: 15})

	got := eng.StudentGrades(ctx, "S")
	if len(got) != 1 || got[0].Value != 15 {
		t.Fatalf("expected a single EXAM grade of 15, got %+v", got)
	}
	if n := len(eng.Notifications().ByType("S", notification.TypeGradeAdded)); n != 2 {
		t.Fatalf("expected both adds notified, got %d", n)
	}

	if err := eng.DeleteGrade(ctx, grade.Key{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam}); err != nil {
		t.Fatal(err)
	}
	if len(eng.StudentGrades(ctx, "S")) != 0 {
		t.Fatal("expected no grade left after deleting the key")
	}
}

func TestDeleteGrade(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	g := &grade.Grade{StudentCode: "S", ModuleCode: "M", Type: grade.TypeExam, Value: 8}
	eng.AddGrade(ctx, g)

	if err := eng.DeleteGrade(ctx, g.Key()); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteGrade(ctx, g.Key()); !errors.Is(err, ErrGradeNotFound) {
		t.Fatalf("expected ErrGradeNotFound, got %v", err)
	}
}

func TestAbsences(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algorithmique", Coefficient: 1, Semester: 1})
	morning := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	afternoon := morning.Add(6 * time.Hour)

	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: morning, Session: absence.SessionCourse})
	recorded := eng.Notifications().ByType("S1", notification.TypeAbsenceRecorded)
	if len(recorded) != 1 || !strings.Contains(recorded[0].Message, "en Algorithmique le 10/02/2026") {
		t.Fatalf("unexpected absence notification %+v", recorded)
	}

	// Same day, other session: replaces the existing absence.
	eng.UpdateAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: afternoon, Session: absence.SessionTD, Justified: true, Reason: "médical"})
	list := eng.StudentAbsences(ctx, "S1")
	if len(list) != 1 || list[0].Session != absence.SessionTD || !list[0].Justified {
		t.Fatalf("expected one justified TD absence, got %+v", list)
	}

	if err := eng.DeleteAbsence(ctx, "S1", "M1", morning, absence.SessionCourse); !errors.Is(err, ErrAbsenceNotFound) {
		t.Fatalf("expected ErrAbsenceNotFound for wrong session, got %v", err)
	}
	if err := eng.DeleteAbsence(ctx, "S1", "M1", morning, absence.SessionTD); err != nil {
		t.Fatal(err)
	}
	if len(eng.StudentAbsences(ctx, "S1")) != 0 {
		t.Fatal("expected absence deleted")
	}
}

func TestAddAbsenceKeepsOnePerSession(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	day := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: day, Session: absence.SessionCourse})
	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: day, Session: absence.SessionCourse, Justified: true})
	list := eng.StudentAbsences(ctx, "S1")
	if len(list) != 1 || !list[0].Justified {
		t.Fatalf("expected one justified absence, got %+v", list)
	}

	eng.AddAbsence(ctx, &absence.Absence{StudentCode: "S1", ModuleCode: "M1", Date: day, Session: absence.SessionTD})
	if got := len(eng.StudentAbsences(ctx, "S1")); got != 2 {
		t.Fatalf("expected another session recorded separately, got %d", got)
	}
}

func TestEnrollments(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algorithmique", Coefficient: 1, Semester: 1})
	hub := eng.Notifications()

	if err := eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: "M1"}); err != nil {
		t.Fatal(err)
	}
	if len(hub.ListFor("S1")) != 0 {
		t.Fatal("expected no notification for a pending enrollment")
	}
	if err := eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: "M1"}); !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("expected ErrDuplicateEnrollment, got %v", err)
	}

	if err := eng.ValidateEnrollment(ctx, "S1", "M1", "A1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.ValidateEnrollment(ctx, "S1", "M1", "A1"); err != nil {
		t.Fatal(err)
	}
	validated := hub.ByType("S1", notification.TypeEnrollmentValidated)
	if len(validated) != 1 || validated[0].Sender != "A1" {
		t.Fatalf("expected one validation notification from A1, got %+v", validated)
	}
	en := eng.StudentEnrollments(ctx, "S1")[0]
	if !en.Validated || en.ValidatedAt == nil || en.ValidatedBy != "A1" {
		t.Fatalf("unexpected enrollment %+v", en)
	}

	if err := eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S2", ModuleCode: "M1", Validated: true, ValidatedBy: "A1"}); err != nil {
		t.Fatal(err)
	}
	notices := hub.ByType("S2", notification.TypeEnrollmentValidated)
	if len(notices) != 1 || !strings.Contains(notices[0].Message, "Algorithmique") {
		t.Fatalf("expected validation notice naming the module, got %+v", notices)
	}

	if err := eng.DeleteEnrollment(ctx, "S1", "M1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteEnrollment(ctx, "S1", "M1"); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
	if err := eng.ValidateEnrollment(ctx, "S1", "M1", "A1"); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Aggregate reads
// ──────────────────────────────────────────────────

func TestQueries(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, professor("P1"))
	mustAddUser(t, eng, user.NewProfessor("P2", "Yacine", "Mansouri", user.ProfessorInfo{Department: "Mathématiques"}))
	mustAddUser(t, eng, student("S1"))
	mustAddUser(t, eng, student("S2"))
	mustAddUser(t, eng, user.NewAdmin("A1", "Karim", "Haddad", user.AdminInfo{}))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})
	mustAddModule(t, eng, &module.Module{Code: "M2", Name: "BD", Coefficient: 1, Semester: 1, ProfessorCode: "P1"})
	mustAddModule(t, eng, &module.Module{Code: "M3", Name: "Analyse", Coefficient: 1, Semester: 1, ProfessorCode: "P2"})
	_ = eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: "M1"})
	_ = eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S1", ModuleCode: "M2"})
	_ = eng.AddEnrollment(ctx, &enrollment.Enrollment{StudentCode: "S2", ModuleCode: "M3"})

	if len(eng.Students(ctx)) != 2 || len(eng.Professors(ctx)) != 2 || len(eng.Admins(ctx)) != 1 {
		t.Fatal("unexpected role partition")
	}
	if got := eng.ProfessorModules(ctx, "P1"); len(got) != 2 {
		t.Fatalf("expected 2 modules for P1, got %d", len(got))
	}
	if got := eng.AvailableModules(ctx, "S1"); len(got) != 1 || got[0].Code != "M3" {
		t.Fatalf("expected only M3 available, got %+v", got)
	}
	if got := eng.ProfessorStudents(ctx, "P1"); len(got) != 1 || got[0].Code != "S1" {
		t.Fatalf("expected S1 once, got %+v", got)
	}
	if got := eng.SearchProfessors(ctx, "MATHÉ"); len(got) != 1 || got[0].Code != "P2" {
		t.Fatalf("expected department match, got %+v", got)
	}
	if got := eng.SearchProfessors(ctx, "p1"); len(got) != 1 || got[0].Code != "P1" {
		t.Fatalf("expected code match, got %+v", got)
	}
	if got := eng.SearchProfessors(ctx, "nobody"); got == nil || len(got) != 0 {
		t.Fatal("expected empty, non-nil result")
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1})

	m, _ := eng.GetModule(ctx, "M1")
	m.Name = "changed"
	eng.Modules(ctx)[0].Name = "changed"

	if again, _ := eng.GetModule(ctx, "M1"); again.Name != "Algo" {
		t.Fatalf("expected stored module untouched, got %q", again.Name)
	}
}

// ──────────────────────────────────────────────────
// Transcript
// ──────────────────────────────────────────────────

func TestTranscript(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Credits: 6, Coefficient: 2, Semester: 1})
	mustAddModule(t, eng, &module.Module{Code: "M2", Name: "BD", Credits: 3, Coefficient: 1, Semester: 1})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeContinuous, Value: 10})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 15})
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M2", Type: grade.TypeExam, Value: 8})

	tr, ok := eng.Transcript(ctx, "S1")
	if !ok {
		t.Fatal("expected transcript")
	}
	if len(tr.Modules) != 2 || tr.Modules[0].ModuleCode != "M1" {
		t.Fatalf("unexpected lines %+v", tr.Modules)
	}
	if !approx(tr.Modules[0].Average, 13) || !approx(tr.Modules[1].Average, 8) {
		t.Fatalf("unexpected module averages %+v", tr.Modules)
	}
	if !approx(tr.Average, 34.0/3) || tr.Credits != 6 {
		t.Fatalf("unexpected totals avg=%f credits=%d", tr.Average, tr.Credits)
	}

	hits := eng.CacheStats().Hits
	if _, ok := eng.Transcript(ctx, "S1"); !ok || eng.CacheStats().Hits != hits+1 {
		t.Fatal("expected cached transcript")
	}

	eng.UpdateGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M2", Type: grade.TypeExam, Value: 12})
	tr, _ = eng.Transcript(ctx, "S1")
	if !approx(tr.Modules[1].Average, 12) || tr.Credits != 9 {
		t.Fatalf("expected refreshed transcript, got %+v", tr)
	}

	if err := eng.UpdateModule(ctx, &module.Module{Code: "M2", Name: "Bases de données", Credits: 3, Coefficient: 1, Semester: 1}); err != nil {
		t.Fatal(err)
	}
	tr, _ = eng.Transcript(ctx, "S1")
	if tr.Modules[1].ModuleName != "Bases de données" {
		t.Fatalf("expected module rename to invalidate, got %q", tr.Modules[1].ModuleName)
	}

	if _, ok := eng.Transcript(ctx, "nobody"); ok {
		t.Fatal("expected no transcript for unknown student")
	}
}

func TestTranscriptNotServedForRemovedStudent(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 11})

	if _, ok := eng.Transcript(ctx, "S1"); !ok {
		t.Fatal("expected transcript")
	}
	if err := eng.UpdateUser(ctx, professor("S1")); err != nil {
		t.Fatal(err)
	}
	if _, ok := eng.Transcript(ctx, "S1"); ok {
		t.Fatal("expected no transcript once S1 is no longer a student")
	}

	if err := eng.UpdateUser(ctx, student("S1")); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			eng.Transcript(ctx, "S1")
		}
	}()
	go func() {
		defer wg.Done()
		for range 25 {
			_ = eng.DeleteUser(ctx, "S1")
			_ = eng.AddUser(ctx, student("S1"))
		}
		_ = eng.DeleteUser(ctx, "S1")
	}()
	wg.Wait()

	if _, ok := eng.Transcript(ctx, "S1"); ok {
		t.Fatal("expected no cached transcript after S1 was deleted")
	}
}

// ──────────────────────────────────────────────────
// Plugins, persistence, lifecycle
// ──────────────────────────────────────────────────

type gradeWatcher struct {
	hub      func() *notification.Hub
	seen     []string
	inboxLen []int
	shutdown bool
}

func (w *gradeWatcher) Name() string { return "grade-watcher" }

func (w *gradeWatcher) OnGradeAdded(_ context.Context, studentCode, moduleCode string, _ float64) error {
	w.seen = append(w.seen, "added:"+studentCode+":"+moduleCode)
	w.inboxLen = append(w.inboxLen, len(w.hub().ListFor(studentCode)))
	return nil
}

func (w *gradeWatcher) OnGradeModified(_ context.Context, studentCode, moduleCode string, _ float64) error {
	w.seen = append(w.seen, "modified:"+studentCode+":"+moduleCode)
	return errors.New("ignored")
}

func (w *gradeWatcher) OnShutdown(context.Context) error {
	w.shutdown = true
	return nil
}

func TestPluginsSeeGradesBeforeNotifications(t *testing.T) {
	ctx := context.Background()
	var eng *Engine
	w := &gradeWatcher{hub: func() *notification.Hub { return eng.Notifications() }}
	eng, _, _ = newTestEngine(t, WithPlugin(w))

	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 11})
	eng.UpdateGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 13})

	if len(w.seen) != 2 || w.seen[0] != "added:S1:M1" || w.seen[1] != "modified:S1:M1" {
		t.Fatalf("unexpected hook calls %v", w.seen)
	}
	if w.inboxLen[0] != 0 {
		t.Fatal("expected the hook to run before the student was notified")
	}
	if len(eng.Notifications().ListFor("S1")) != 2 {
		t.Fatal("expected hook error not to stop the notification")
	}

	if err := eng.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if !w.shutdown {
		t.Fatal("expected shutdown hook on cleanup")
	}
}

func TestPersistenceFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	eng, s, _ := newTestEngine(t)
	saves := s.SaveCount(memory.Grades)
	s.FailWrites(errors.New("disk full"))

	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 9})
	if len(eng.StudentGrades(ctx, "S1")) != 1 {
		t.Fatal("expected grade kept in memory")
	}
	if s.SaveCount(memory.Grades) != saves {
		t.Fatal("expected no successful save")
	}
	if err := eng.SaveAll(ctx); err == nil {
		t.Fatal("expected SaveAll to report the failure")
	}

	s.FailWrites(nil)
	if err := eng.SaveAll(ctx); err != nil {
		t.Fatal(err)
	}
	persisted, _ := s.LoadGrades(ctx)
	if len(persisted) != 1 {
		t.Fatalf("expected grade persisted after recovery, got %d", len(persisted))
	}
}

func TestMutationsPersistImmediately(t *testing.T) {
	ctx := context.Background()
	eng, s, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))

	reopened, err := New(WithStore(s), WithSeed(seed.Empty), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := reopened.GetUser(ctx, "S1"); !ok {
		t.Fatal("expected S1 loaded from the store")
	}
	if len(reopened.Notifications().ListFor("S1")) != 1 {
		t.Fatal("expected the welcome notification loaded from the store")
	}
}

func TestOpenKeepsInboxesWhenACollectionIsCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	open := func() *Engine {
		t.Helper()
		eng, err := New(WithStore(file.New(dir)), WithSeed(seed.Empty), WithLogger(quietLogger()))
		if err != nil {
			t.Fatal(err)
		}
		if err := eng.Open(ctx); err != nil {
			t.Fatal(err)
		}
		return eng
	}

	eng := open()
	mustAddUser(t, eng, student("S1"))
	eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 12})
	if got := len(eng.Notifications().ListFor("S1")); got != 2 {
		t.Fatalf("expected two notifications before reopening, got %d", got)
	}

	if err := os.WriteFile(filepath.Join(dir, file.GradesFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	reopened := open()
	if len(reopened.Grades(ctx)) != 0 {
		t.Fatal("expected collections reseeded after the failed load")
	}
	if got := len(reopened.Notifications().ListFor("S1")); got != 2 {
		t.Fatalf("expected inbox to survive the reseed, got %d", got)
	}
	if got := len(open().Notifications().ListFor("S1")); got != 2 {
		t.Fatalf("expected inbox still persisted after the reseed, got %d", got)
	}
}

func TestHousekeepAndCleanup(t *testing.T) {
	ctx := context.Background()
	eng, _, clk := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))
	eng.GetUser(ctx, "S1")

	clk.advance(31 * 24 * time.Hour)
	swept, pruned := eng.Housekeep(ctx)
	if swept != 1 || pruned != 1 {
		t.Fatalf("expected 1 swept and 1 pruned, got %d and %d", swept, pruned)
	}

	eng.GetUser(ctx, "S1")
	if err := eng.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if size := eng.CacheStats().Sizes["user"]; size != 0 {
		t.Fatalf("expected cache cleared, got %d entries", size)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	mustAddUser(t, eng, student("S1"))
	mustAddModule(t, eng, &module.Module{Code: "M1", Name: "Algo", Coefficient: 1, Semester: 1})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				eng.AddGrade(ctx, &grade.Grade{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeContinuous, Value: 10})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				eng.GetUser(ctx, "S1")
				eng.Transcript(ctx, "S1")
				eng.StudentGrades(ctx, "S1")
			}
		}()
	}
	wg.Wait()

	if got := len(eng.StudentGrades(ctx, "S1")); got != 80 {
		t.Fatalf("expected 80 grades, got %d", got)
	}
}
