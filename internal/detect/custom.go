package detect

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	regexp "github.com/wasilibs/go-re2"
)

// ErrInvalidRule is returned for a custom rule that cannot be used.
var ErrInvalidRule = errors.New("invalid rule")

// CustomSuffix marks a ruleset extended from a rules file.
const CustomSuffix = "+custom"

type rulesFile struct {
	Secret []struct {
		ID          string `toml:"id"`
		Description string `toml:"description"`
		Pattern     string `toml:"pattern"`
		ValueGroup  int    `toml:"value_group"`
		Placeholder bool   `toml:"placeholder"`
	} `toml:"secret"`
	Injection []struct {
		ID          string `toml:"id"`
		Description string `toml:"description"`
		Pattern     string `toml:"pattern"`
		OutsideCode bool   `toml:"outside_code"`
	} `toml:"injection"`
	Destructive []struct {
		ID          string `toml:"id"`
		Description string `toml:"description"`
		Pattern     string `toml:"pattern"`
		Unless      string `toml:"unless"`
	} `toml:"destructive"`
	Escalation []struct {
		ID      string `toml:"id"`
		Pattern string `toml:"pattern"`
	} `toml:"escalation"`
}

// LoadRules reads a TOML rules file and returns base extended with its
// rules. base is not modified.
func LoadRules(path string, base *Ruleset) (*Ruleset, error) {
	var rf rulesFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("decode rules %s: %w", path, err)
	}
	if base == nil {
		base = DefaultRuleset()
	}
	rs := base.clone()
	rs.Version = base.Version + CustomSuffix

	ids := make(map[string]bool)
	for _, r := range rs.Describe() {
		ids[r.Detector+"/"+r.ID] = true
	}
	claim := func(detector, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s rule without id", ErrInvalidRule, detector)
		}
		key := detector + "/" + id
		if ids[key] {
			return fmt.Errorf("%w: duplicate %s rule %q", ErrInvalidRule, detector, id)
		}
		ids[key] = true
		return nil
	}

	for _, r := range rf.Secret {
		if err := claim(DetectorSecrets, r.ID); err != nil {
			return nil, err
		}
		re, err := compileRule(r.ID, r.Pattern)
		if err != nil {
			return nil, err
		}
		if r.ValueGroup > re.NumSubexp() {
			return nil, fmt.Errorf("%w: %s: value_group %d exceeds %d groups", ErrInvalidRule, r.ID, r.ValueGroup, re.NumSubexp())
		}
		rs.Secrets = append(rs.Secrets, SecretRule{ID: r.ID, Description: describe(r.Description, r.ID), Pattern: re, ValueGroup: r.ValueGroup, Placeholder: r.Placeholder})
	}
	for _, r := range rf.Injection {
		if err := claim(DetectorInjection, r.ID); err != nil {
			return nil, err
		}
		re, err := compileRule(r.ID, r.Pattern)
		if err != nil {
			return nil, err
		}
		rs.Injections = append(rs.Injections, InjectionRule{ID: r.ID, Description: describe(r.Description, r.ID), Pattern: re, OutsideCode: r.OutsideCode})
	}
	for _, r := range rf.Destructive {
		if err := claim(DetectorDestructive, r.ID); err != nil {
			return nil, err
		}
		re, err := compileRule(r.ID, r.Pattern)
		if err != nil {
			return nil, err
		}
		rule := DestructiveRule{ID: r.ID, Description: describe(r.Description, r.ID), Pattern: re}
		if r.Unless != "" {
			if rule.Unless, err = compileRule(r.ID, r.Unless); err != nil {
				return nil, err
			}
		}
		rs.Destructive = append(rs.Destructive, rule)
	}
	for _, r := range rf.Escalation {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: escalation rule without id", ErrInvalidRule)
		}
		re, err := compileRule(r.ID, r.Pattern)
		if err != nil {
			return nil, err
		}
		rs.Escalation = append(rs.Escalation, EscalationRule{ID: r.ID, Pattern: re})
	}
	return rs, nil
}

func compileRule(id, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: %s: empty pattern", ErrInvalidRule, id)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, id, err)
	}
	return re, nil
}

func describe(desc, id string) string {
	if desc != "" {
		return desc
	}
	return id
}
