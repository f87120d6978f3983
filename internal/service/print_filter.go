package service

import (
	"fmt"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

// PrintScope narrows which exam results are exported.
type PrintScope string

const (
	PrintAll       PrintScope = "all"
	PrintByClass   PrintScope = "byClass"
	PrintByStudent PrintScope = "byStudent"
)

// Valid reports whether s is a known scope.
func (s PrintScope) Valid() bool {
	return s == PrintAll || s == PrintByClass || s == PrintByStudent
}

// StudentOption is a selectable student, keyed like the grouped view.
type StudentOption struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	KeyedByName bool   `json:"keyedByName"`
}

// PrintOptions are the distinct choices available in a loaded result set, in first-seen order.
type PrintOptions struct {
	Classes  []string        `json:"classes"`
	Students []StudentOption `json:"students"`
	Dates    []string        `json:"dates"`
}

// BuildPrintOptions collects the distinct classes, students and exam dates of results.
func BuildPrintOptions(results []models.ExamResult) PrintOptions {
	opts := PrintOptions{Classes: []string{}, Students: []StudentOption{}, Dates: []string{}}
	seenClass := map[string]struct{}{}
	seenStudent := map[string]struct{}{}
	seenDate := map[string]struct{}{}
	for _, r := range results {
		if r.ClassName != "" {
			if _, ok := seenClass[r.ClassName]; !ok {
				seenClass[r.ClassName] = struct{}{}
				opts.Classes = append(opts.Classes, r.ClassName)
			}
		}
		if key, byName, ok := StudentGroupKey(r); ok {
			if _, seen := seenStudent[key]; !seen {
				seenStudent[key] = struct{}{}
				opts.Students = append(opts.Students, StudentOption{Key: key, Name: r.DisplayName(), KeyedByName: byName})
			}
		}
		if d := r.ExamDate.String(); d != "" {
			if _, ok := seenDate[d]; !ok {
				seenDate[d] = struct{}{}
				opts.Dates = append(opts.Dates, d)
			}
		}
	}
	return opts
}

// PrintFilter is the scope selection for one export. Changing the scope clears selections that
// no longer apply.
type PrintFilter struct {
	results []models.ExamResult
	options PrintOptions

	scope   PrintScope
	class   string
	student *StudentOption
	date    string
}

// NewPrintFilter starts with scope all over the loaded results.
func NewPrintFilter(results []models.ExamResult) *PrintFilter {
	return &PrintFilter{results: results, options: BuildPrintOptions(results), scope: PrintAll}
}

// Options exposes the selectable values.
func (f *PrintFilter) Options() PrintOptions {
	return f.options
}

// Scope returns the active scope.
func (f *PrintFilter) Scope() PrintScope {
	return f.scope
}

// SetScope switches scope and clears the class or student choice it makes irrelevant.
func (f *PrintFilter) SetScope(scope PrintScope) error {
	if scope == "" {
		scope = PrintAll
	}
	if !scope.Valid() {
		return appErrors.Validation(fmt.Sprintf("unknown print scope %q", scope))
	}
	if scope != f.scope {
		f.class = ""
		f.student = nil
	}
	f.scope = scope
	return nil
}

// SelectClass picks the class for the byClass scope.
func (f *PrintFilter) SelectClass(name string) error {
	if f.scope != PrintByClass {
		return appErrors.Validation("a class can only be chosen when printing by class")
	}
	for _, c := range f.options.Classes {
		if c == name {
			f.class = name
			return nil
		}
	}
	return appErrors.Validation(fmt.Sprintf("class %q is not in the loaded results", name))
}

// SelectStudent picks the student for the byStudent scope by grouping key.
func (f *PrintFilter) SelectStudent(key string) error {
	if f.scope != PrintByStudent {
		return appErrors.Validation("a student can only be chosen when printing by student")
	}
	for i := range f.options.Students {
		if f.options.Students[i].Key == key {
			opt := f.options.Students[i]
			f.student = &opt
			return nil
		}
	}
	return appErrors.Validation(fmt.Sprintf("student %q is not in the loaded results", key))
}

// SelectDate narrows to one exam date taken from the loaded results. An empty date clears it.
func (f *PrintFilter) SelectDate(date string) error {
	if date == "" {
		f.date = ""
		return nil
	}
	parsed, err := models.ParseDate(date)
	if err != nil {
		return appErrors.Validation(err.Error())
	}
	for _, d := range f.options.Dates {
		if d == parsed.String() {
			f.date = d
			return nil
		}
	}
	return appErrors.Validation(fmt.Sprintf("no exam results on %s", parsed.String()))
}

// Ready reports whether the scope has the selection it requires.
func (f *PrintFilter) Ready() error {
	switch {
	case f.scope == PrintByClass && f.class == "":
		return appErrors.Validation("please select a class to print")
	case f.scope == PrintByStudent && f.student == nil:
		return appErrors.Validation("please select a student to print")
	}
	return nil
}

// Apply returns the results matching the scope and date.
func (f *PrintFilter) Apply() []models.ExamResult {
	out := make([]models.ExamResult, 0, len(f.results))
	for _, r := range f.results {
		switch f.scope {
		case PrintByClass:
			if r.ClassName != f.class {
				continue
			}
		case PrintByStudent:
			key, _, ok := StudentGroupKey(r)
			if !ok || f.student == nil || key != f.student.Key {
				continue
			}
		}
		if f.date != "" && r.ExamDate.String() != f.date {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ScopeName is the most specific selected name, used for the filename.
func (f *PrintFilter) ScopeName() string {
	switch {
	case f.scope == PrintByStudent && f.student != nil:
		return f.student.Name
	case f.scope == PrintByClass:
		return f.class
	}
	return ""
}

// Title describes the export: "<scope> Exam Results" with the date appended when narrowed.
func (f *PrintFilter) Title() string {
	title := "Exam Results Report"
	if name := f.ScopeName(); name != "" {
		title = name + " Exam Results"
	}
	if f.date != "" {
		title += " - " + f.date
	}
	return title
}

// Subtitle is "Class: X" or "Student: Y", or empty for scope all.
func (f *PrintFilter) Subtitle() string {
	switch {
	case f.scope == PrintByStudent && f.student != nil:
		return "Student: " + f.student.Name
	case f.scope == PrintByClass && f.class != "":
		return "Class: " + f.class
	}
	return ""
}
