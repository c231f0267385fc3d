// Package registrar is the consistency and caching core of an academic
// records system. It keeps users, modules, grades, absences and
// enrollments in memory, persists every change wholesale through a
// store.Store, caches single-entity lookups, and notifies students,
// professors and plugins of the changes that concern them.
//
//	eng, err := registrar.New(
//	    registrar.WithStore(file.New("data")),
//	)
//	if err != nil { ... }
//	if err := eng.Open(ctx); err != nil { ... }
//	defer eng.Cleanup(ctx)
//
//	eng.AddGrade(ctx, &grade.Grade{
//	    StudentCode: "E001",
//	    ModuleCode:  "INF101",
//	    Type:        grade.TypeExam,
//	    Value:       14,
//	})
package registrar
