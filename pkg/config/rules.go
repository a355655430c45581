package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/decision"
)

// ErrEmptyRuleFile is returned for a rule file with no YAML document.
var ErrEmptyRuleFile = errors.New("rule file is empty")

// RuleFile is the parsed form of a rule file.
type RuleFile struct {
	Server   *ServerConfig `yaml:"server,omitempty"`
	Include  []string      `yaml:"include,omitempty"`
	Fallback *RespondSpec  `yaml:"fallback,omitempty"`
	Rules    []Rule        `yaml:"rules"`

	// Path is the file the rules were loaded from, if any.
	Path string `yaml:"-"`
}

// Rule declares one candidate.
type Rule struct {
	ID string `yaml:"id"`
	// Priority defaults to after every explicit priority, in file order.
	Priority *int        `yaml:"priority,omitempty"`
	When     *MatchNode  `yaml:"when,omitempty"`
	Respond  RespondSpec `yaml:"respond"`

	source string
}

// RuleError ties a build error to the rule that caused it.
type RuleError struct {
	Index  int
	ID     string
	Source string
	Err    error
}

func (e *RuleError) Error() string {
	where := fmt.Sprintf("rule %d", e.Index)
	if e.ID != "" {
		where = fmt.Sprintf("rule %q", e.ID)
	}
	if e.Source != "" {
		where = e.Source + ": " + where
	}
	return where + ": " + e.Err.Error()
}

func (e *RuleError) Unwrap() error { return e.Err }

// Parse decodes a rule file. Unknown keys are errors. Include patterns are
// not expanded; use Load for that.
func Parse(data []byte) (*RuleFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(ExpandEnvVars(string(data)))))
	dec.KnownFields(true)

	var rf RuleFile
	if err := dec.Decode(&rf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyRuleFile
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &rf, nil
}

// Load reads the rule file at path and appends the rules of every included
// file. Include patterns are relative to the file's directory and support
// ** via doublestar; matches load in lexical order.
func Load(path string) (*RuleFile, error) {
	rf, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(path)
	for _, pattern := range rf.Include {
		matches, err := doublestar.FilepathGlob(ResolvePath(baseDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("expanding include %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			inc, err := loadFile(match)
			if err != nil {
				return nil, err
			}
			if len(inc.Include) > 0 || inc.Server != nil || inc.Fallback != nil {
				return nil, fmt.Errorf("%s: included files may only declare rules", match)
			}
			rf.Rules = append(rf.Rules, inc.Rules...)
		}
	}
	return rf, nil
}

func loadFile(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rf.Path = path
	for i := range rf.Rules {
		rf.Rules[i].source = path
	}
	return rf, nil
}

// Build turns the rules into a Decision and the fallback into a Fallback
// (Teapot when none is declared). Every rule is built even after a failure,
// so the returned error lists all problems in the file.
func (rf *RuleFile) Build() (*decision.Decision, decision.Fallback, error) {
	var errs error
	reg := decision.NewRegistry()

	priorities := rf.priorities()
	for i, rule := range rf.Rules {
		c, err := rule.candidate(priorities[i])
		if err == nil {
			err = reg.Register(c)
		}
		if err != nil {
			errs = multierr.Append(errs, &RuleError{Index: i, ID: rule.ID, Source: rule.source, Err: err})
		}
	}

	fallback := decision.RejectNonMatching()
	if rf.Fallback != nil {
		spec, err := rf.Fallback.Build()
		if err == nil {
			fallback, err = decision.StaticFallback(spec)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fallback: %w", err))
		}
	}

	if errs != nil {
		return nil, nil, errs
	}
	return reg.Decision(), fallback, nil
}

// ServerConfig returns the defaults merged with the file's server section.
func (rf *RuleFile) ServerConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Merge(rf.Server)
	return cfg
}

// priorities resolves each rule's priority. Rules without one follow every
// explicit priority, numbered in file order from the highest explicit
// priority plus one.
func (rf *RuleFile) priorities() []int {
	next := 0
	for _, r := range rf.Rules {
		if r.Priority != nil && *r.Priority >= next {
			next = *r.Priority + 1
		}
	}
	out := make([]int, len(rf.Rules))
	for i, r := range rf.Rules {
		if r.Priority != nil {
			out[i] = *r.Priority
			continue
		}
		out[i] = next
		next++
	}
	return out
}

func (r Rule) candidate(priority int) (*decision.Candidate, error) {
	var cond condition.Condition = condition.AlwaysTrue
	if r.When != nil {
		c, err := r.When.Build()
		if err != nil {
			return nil, fmt.Errorf("when: %w", err)
		}
		cond = c
	}

	spec, err := r.Respond.Build()
	if err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}
	return decision.NewCandidate(r.ID, priority, cond, decision.RespondWith(spec))
}
