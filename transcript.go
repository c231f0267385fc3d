package registrar

import (
	"context"
	"sort"

	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
)

// Weights of the two grade kinds in a module average when both exist.
const (
	ContinuousWeight = 0.4
	ExamWeight       = 0.6
)

// ModuleResult is one line of a transcript.
type ModuleResult struct {
	ModuleCode    string
	ModuleName    string
	Coefficient   float64
	Credits       int
	Continuous    float64
	HasContinuous bool
	Exam          float64
	HasExam       bool
	Average       float64
}

// Passed reports whether the module average reaches 10/20.
func (r ModuleResult) Passed() bool { return r.Average >= 10 }

// Transcript summarizes a student's grades per module.
type Transcript struct {
	StudentCode string
	Modules     []ModuleResult

	// Average is the coefficient-weighted mean of the module averages.
	Average float64

	// Credits is the sum of credits of passed modules.
	Credits int
}

func (t *Transcript) clone() *Transcript {
	c := *t
	c.Modules = append([]ModuleResult(nil), t.Modules...)
	return &c
}

func transcriptKey(studentCode string) string {
	return userQueryPrefix(studentCode) + "transcript"
}

// userQueryRoot prefixes every query-namespace key derived from a user.
const userQueryRoot = "user_"

// userQueryPrefix is the query-namespace prefix of everything derived from
// one student.
func userQueryPrefix(code string) string {
	return userQueryRoot + code + "_"
}

// Transcript returns the per-module averages of a student. The result is
// cached until the student, their grades or any module changes. It reports
// false when no student has that code.
func (e *Engine) Transcript(_ context.Context, studentCode string) (*Transcript, bool) {
	key := transcriptKey(studentCode)
	if t, ok := e.queries.Get(key); ok {
		return t.clone(), true
	}

	// Writers invalidate while holding these locks, so caching under them
	// never resurrects a stale transcript.
	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	i := e.findUserLocked(studentCode)
	if i < 0 || !e.userList[i].IsStudent() {
		return nil, false
	}
	e.modulesMu.RLock()
	e.gradesMu.RLock()
	t := buildTranscript(studentCode, e.modules, e.grades)
	e.queries.Put(key, t, e.config.CacheTTL)
	e.gradesMu.RUnlock()
	e.modulesMu.RUnlock()

	return t.clone(), true
}

func buildTranscript(studentCode string, modules []*module.Module, grades []*grade.Grade) *Transcript {
	byCode := make(map[string]*module.Module, len(modules))
	for _, m := range modules {
		byCode[m.Code] = m
	}

	lines := make(map[string]*ModuleResult)
	for _, g := range grades {
		if g.StudentCode != studentCode {
			continue
		}
		line, ok := lines[g.ModuleCode]
		if !ok {
			line = &ModuleResult{ModuleCode: g.ModuleCode, ModuleName: g.ModuleCode, Coefficient: 1}
			if m, found := byCode[g.ModuleCode]; found {
				line.ModuleName = m.Name
				line.Credits = m.Credits
				if m.Coefficient > 0 {
					line.Coefficient = m.Coefficient
				}
			}
			lines[g.ModuleCode] = line
		}
		switch g.Type {
		case grade.TypeExam:
			line.Exam, line.HasExam = g.Value, true
		case grade.TypeContinuous:
			line.Continuous, line.HasContinuous = g.Value, true
		}
	}

	t := &Transcript{StudentCode: studentCode, Modules: make([]ModuleResult, 0, len(lines))}
	var weighted, coefficients float64
	for _, line := range lines {
		switch {
		case line.HasExam && line.HasContinuous:
			line.Average = ContinuousWeight*line.Continuous + ExamWeight*line.Exam
		case line.HasExam:
			line.Average = line.Exam
		case line.HasContinuous:
			line.Average = line.Continuous
		default:
			continue
		}
		weighted += line.Average * line.Coefficient
		coefficients += line.Coefficient
		if line.Passed() {
			t.Credits += line.Credits
		}
		t.Modules = append(t.Modules, *line)
	}
	sort.Slice(t.Modules, func(i, j int) bool { return t.Modules[i].ModuleCode < t.Modules[j].ModuleCode })
	if coefficients > 0 {
		t.Average = weighted / coefficients
	}
	return t
}
