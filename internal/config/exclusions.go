package config

import (
	"fmt"
	"strings"
)

// Treatment controls how windows of a matched process are handled.
type Treatment string

const (
	// TreatmentAlways excludes the process entirely: its windows are
	// never treated as the active surface.
	TreatmentAlways Treatment = "always"
	// TreatmentExceptSettings excludes the process unless the window
	// title identifies a configuration surface.
	TreatmentExceptSettings Treatment = "except-settings"
	// TreatmentNever forces masking even when the window would otherwise
	// be skipped.
	TreatmentNever Treatment = "never"
)

// ExclusionRule matches a process by application identity or by a
// substring of its name.
type ExclusionRule struct {
	App          string    `yaml:"app"`
	NameContains string    `yaml:"name_contains"`
	Treatment    Treatment `yaml:"treatment"`
}

func (r ExclusionRule) validate() error {
	if r.App == "" && r.NameContains == "" {
		return fmt.Errorf("rule needs app or name_contains")
	}
	switch r.Treatment {
	case TreatmentAlways, TreatmentExceptSettings, TreatmentNever:
		return nil
	default:
		return fmt.Errorf("unknown treatment %q", r.Treatment)
	}
}

func (r ExclusionRule) matches(identity, name string) bool {
	if r.App != "" && strings.EqualFold(r.App, identity) {
		return true
	}
	if r.NameContains != "" {
		needle := strings.ToLower(r.NameContains)
		return strings.Contains(strings.ToLower(name), needle) ||
			strings.Contains(strings.ToLower(identity), needle)
	}
	return false
}

// Decision is the outcome of an exclusion query for one window.
type Decision int

const (
	// DecisionAllow applies normal masking rules.
	DecisionAllow Decision = iota
	// DecisionExclude keeps the window covered and bars it from being
	// the active surface.
	DecisionExclude
	// DecisionForce masks the window even when it would otherwise be
	// skipped.
	DecisionForce
)

// Titles identifying configuration surfaces, across the languages the
// overlay ships in. Matched case-insensitively as substrings.
var settingsKeywords = []string{
	"settings", "preferences", "options",
	"einstellungen",
	"préférences", "réglages",
	"preferencias", "ajustes",
	"impostazioni", "preferenze",
	"configurações", "preferências",
	"instellingen", "voorkeuren",
	"設定",
	"설정",
	"настройки",
	"设置", "偏好设置",
}

// Exclusions is the queryable set of exclusion rules.
type Exclusions struct {
	rules []ExclusionRule
}

// NewExclusions builds an exclusion set. A nil or empty rule list allows
// everything.
func NewExclusions(rules []ExclusionRule) *Exclusions {
	return &Exclusions{rules: rules}
}

// Decide returns the treatment outcome for a window identified by its
// process identity, process name and resolved title. The first matching
// rule wins.
func (e *Exclusions) Decide(identity, name, title string) Decision {
	if e == nil {
		return DecisionAllow
	}
	for _, rule := range e.rules {
		if !rule.matches(identity, name) {
			continue
		}
		switch rule.Treatment {
		case TreatmentAlways:
			return DecisionExclude
		case TreatmentExceptSettings:
			if isSettingsTitle(title) {
				return DecisionAllow
			}
			return DecisionExclude
		case TreatmentNever:
			return DecisionForce
		}
	}
	return DecisionAllow
}

// ExcludesProcess reports whether the process as a whole may never be the
// active surface. Title-based carve-outs do not apply here: a process on
// the always list yields an empty snapshot when frontmost.
func (e *Exclusions) ExcludesProcess(identity, name string) bool {
	if e == nil {
		return false
	}
	for _, rule := range e.rules {
		if rule.matches(identity, name) {
			return rule.Treatment == TreatmentAlways
		}
	}
	return false
}

func isSettingsTitle(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range settingsKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
