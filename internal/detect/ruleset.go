package detect

import (
	regexp "github.com/wasilibs/go-re2"

	"github.com/boshu2/taskguard/internal/finding"
)

// RulesetVersion identifies the built-in rule table. Bump it whenever a
// pattern changes so reports can be traced to the rules that produced them.
const RulesetVersion = "2026.10"

// SecretRule matches a credential shape on a single line.
type SecretRule struct {
	ID          string
	Description string
	Pattern     *regexp.Regexp

	// ValueGroup selects the submatch holding the secret. Zero masks the
	// whole match; a negative value reports the line without masking
	// anything (e.g. a PEM header that carries no secret itself).
	ValueGroup int

	// Placeholder enables the placeholder exemption for the matched value.
	Placeholder bool
}

// InjectionRule matches an instruction-redirecting phrase.
type InjectionRule struct {
	ID          string
	Description string
	Pattern     *regexp.Regexp

	// OutsideCode limits the rule to prose: fenced blocks and inline code
	// spans are ignored, so documentation can demonstrate the marker.
	OutsideCode bool
}

// DestructiveRule matches an irreversible shell or SQL command.
type DestructiveRule struct {
	ID          string
	Description string
	Pattern     *regexp.Regexp

	// Unless is a safety qualifier; a line matching it is not reported.
	Unless *regexp.Regexp
}

// EscalationRule matches a privilege-escalation phrase. It raises the
// severity of destructive commands found in the same code block.
type EscalationRule struct {
	ID      string
	Pattern *regexp.Regexp
}

// Ruleset is the complete rule table handed to a Scanner.
type Ruleset struct {
	Version     string
	Secrets     []SecretRule
	Injections  []InjectionRule
	Destructive []DestructiveRule
	Escalation  []EscalationRule
}

// RuleInfo describes one rule for listings.
type RuleInfo struct {
	Detector    string           `json:"detector" yaml:"detector"`
	ID          string           `json:"id" yaml:"id"`
	Severity    finding.Severity `json:"severity" yaml:"severity"`
	Description string           `json:"description" yaml:"description"`
}

// Describe lists every rule with the severity it reports at. Destructive
// rules are listed at their base severity.
func (rs *Ruleset) Describe() []RuleInfo {
	var out []RuleInfo
	for _, r := range rs.Secrets {
		out = append(out, RuleInfo{DetectorSecrets, r.ID, finding.SeverityCritical, r.Description})
	}
	for _, r := range rs.Injections {
		out = append(out, RuleInfo{DetectorInjection, r.ID, finding.SeverityCritical, r.Description})
	}
	for _, r := range rs.Destructive {
		out = append(out, RuleInfo{DetectorDestructive, r.ID, finding.SeverityWarning, r.Description})
	}
	return out
}

// clone returns a copy whose rule slices can be appended to independently.
func (rs *Ruleset) clone() *Ruleset {
	return &Ruleset{
		Version:     rs.Version,
		Secrets:     append([]SecretRule(nil), rs.Secrets...),
		Injections:  append([]InjectionRule(nil), rs.Injections...),
		Destructive: append([]DestructiveRule(nil), rs.Destructive...),
		Escalation:  append([]EscalationRule(nil), rs.Escalation...),
	}
}

// valueChars is the character class of an unquoted assignment value.
const valueChars = "[^\\s\"'`,;]+"

// placeholderAlt matches bracketed interpolation so it is captured whole.
const placeholderAlt = `\$\{[^}]*\}|\{\{[^}]*\}\}|<[^<>]*>`

// DefaultRuleset builds the built-in rule table. Each call returns a fresh
// value; callers own it.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		Version: RulesetVersion,
		Secrets: []SecretRule{
			{
				ID:          "aws-access-key-id",
				Description: "Cloud access key id",
				Pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA|ABIA|ACCA|AGPA|AIDA|AROA|ANPA|ANVA|AIPA)[0-9A-Z]{16}\b`),
			},
			{
				ID:          "aws-secret-access-key",
				Description: "Cloud secret access key",
				Pattern:     regexp.MustCompile(`(?i)aws_?secret_?access_?key\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})\b`),
				ValueGroup:  1,
			},
			{
				ID:          "generic-credential",
				Description: "Hardcoded password, secret, key or token assignment",
				Pattern: regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|secret|client[_-]?secret|` +
					`(?:api|access|account|secret|private|client)?[_-]?key|(?:auth|access|api|refresh)?[_-]?token)` +
					`\s*(?:=|:\s*["'])\s*["']?(` + placeholderAlt + `|%[A-Za-z0-9_]+%|` + valueChars + `)`),
				ValueGroup:  1,
				Placeholder: true,
			},
			{
				ID:          "url-credentials",
				Description: "Password embedded in a connection URL",
				Pattern:     regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^/\s:@]+:(` + placeholderAlt + `|[^/\s:@]+)@`),
				ValueGroup:  1,
				Placeholder: true,
			},
			{
				ID:          "private-key",
				Description: "PEM private key block",
				Pattern:     regexp.MustCompile(`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY(?: BLOCK)?-----`),
				ValueGroup:  -1,
			},
			{
				ID:          "github-token",
				Description: "GitHub access token",
				Pattern:     regexp.MustCompile(`\b(?:(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,255})\b`),
			},
			{
				ID:          "gitlab-token",
				Description: "GitLab personal access token",
				Pattern:     regexp.MustCompile(`\bglpat-[A-Za-z0-9_-]{20}\b`),
			},
			{
				ID:          "slack-token",
				Description: "Slack token",
				Pattern:     regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}`),
			},
			{
				ID:          "openai-key",
				Description: "OpenAI API key",
				Pattern:     regexp.MustCompile(`\bsk-[A-Za-z0-9]{48}\b`),
			},
			{
				ID:          "npm-token",
				Description: "npm access token",
				Pattern:     regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`),
			},
			{
				ID:          "bearer-token",
				Description: "Bearer token",
				Pattern:     regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-.=]{20,})`),
				ValueGroup:  1,
			},
		},
		Injections: []InjectionRule{
			{
				ID:          "instruction-override",
				Description: "Instruction override",
				Pattern:     regexp.MustCompile(`(?i)\bignore\s+(?:all\s+|any\s+|the\s+)?(?:previous|prior|above|earlier|preceding)\s+(?:instructions?|prompts?|rules|directions|guidelines)\b`),
			},
			{
				ID:          "instruction-disregard",
				Description: "Instruction disregard",
				Pattern:     regexp.MustCompile(`(?i)\bdisregard\s+(?:all\s+|any\s+|the\s+)?(?:previous|prior|above|earlier|preceding)\b`),
			},
			{
				ID:          "memory-wipe",
				Description: "Memory wipe attempt",
				Pattern:     regexp.MustCompile(`(?i)\bforget\s+(?:(?:all|everything)\s+)?(?:previous|prior|above|you\s+(?:were|have\s+been)\s+told)\b|\bforget\s+everything\b`),
			},
			{
				ID:          "mode-switch",
				Description: "Mode switch",
				Pattern:     regexp.MustCompile(`(?i)\byou\s+are\s+now\s+in\s+[\w\s-]{0,40}?\bmode\b`),
			},
			{
				ID:          "role-reassignment",
				Description: "Role reassignment",
				Pattern:     regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(?:a|an|the|my)\s+\w+|\bpretend\s+(?:you\s+are|to\s+be)\b|\bfrom\s+now\s+on,?\s+you\b`),
			},
			{
				ID:          "new-instructions",
				Description: "New instruction injection",
				Pattern:     regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:|\bdo\s+not\s+follow\s+(?:the\s+)?(?:above|previous|prior)\b`),
			},
			{
				ID:          "safety-bypass",
				Description: "Safety guideline bypass",
				Pattern: regexp.MustCompile(`(?i)\b(?:ignore|bypass|disable|override)\s+(?:all\s+|any\s+|your\s+|the\s+)?` +
					`(?:safety|security|content)\s+(?:guidelines|rules|restrictions|filters|policies|checks)\b|` +
					`\boverride\s+(?:all\s+)?(?:safety|restrictions|guardrails)\b`),
			},
			{
				ID:          "jailbreak",
				Description: "Jailbreak attempt",
				Pattern:     regexp.MustCompile(`(?i:\bjailbreak\w*|\bdo\s+anything\s+now\b|\b(?:enable|enter|activate|switch\s+to)\s+(?:developer|god|admin|dan)\s+mode\b)|\bDAN\b`),
			},
			{
				ID:          "system-role-marker",
				Description: "System-role marker in prose",
				Pattern:     regexp.MustCompile(`(?i)\[(?:SYSTEM|INST|/INST)\]|<\|?(?:system|im_start|im_end)\|?>|^\s*#{1,3}\s*(?:Human|Assistant|System)\s*:|^\s*(?:system|assistant)\s*:`),
				OutsideCode: true,
			},
		},
		Destructive: []DestructiveRule{
			{
				ID:          "recursive-force-delete",
				Description: "Recursive force delete",
				Pattern: regexp.MustCompile(`(?i)\brm\s+(?:-\w*r\w*f\w*|-\w*f\w*r\w*|-r\s+-f|-f\s+-r|--recursive\s+--force|--force\s+--recursive)\b|` +
					`\bRemove-Item\b.*-Recurse\b.*-Force\b|\bRemove-Item\b.*-Force\b.*-Recurse\b|\b(?:rd|rmdir)\s+/s\s+/q\b`),
				Unless: regexp.MustCompile(`--dry-run|--interactive`),
			},
			{
				ID:          "world-writable-permissions",
				Description: "World-writable permission change",
				Pattern:     regexp.MustCompile(`(?i)\bchmod\s+(?:-R\s+)?(?:0?777|a\+rwx|ugo\+rwx)\b`),
			},
			{
				ID:          "recursive-root-permissions",
				Description: "Filesystem-wide permission change",
				Pattern:     regexp.MustCompile(`(?i)\bch(?:mod|own|grp)\s+-R\s+\S+\s+/(?:\s|$)`),
			},
			{
				ID:          "disk-overwrite",
				Description: "Filesystem format or raw disk write",
				Pattern:     regexp.MustCompile(`\bmkfs(?:\.\w+)?\s|\bdd\s+.*\bof=/dev/|>\s*/dev/sd[a-z]\b`),
			},
			{
				ID:          "sql-drop",
				Description: "Unconditional DROP statement",
				Pattern:     regexp.MustCompile(`(?i)\bDROP\s+(?:TABLE|DATABASE|SCHEMA|USER|INDEX|VIEW)\b`),
			},
			{
				ID:          "sql-truncate",
				Description: "TRUNCATE statement",
				Pattern:     regexp.MustCompile(`(?i)\bTRUNCATE\s+(?:TABLE\s+)?[\w."` + "`" + `]+`),
			},
			{
				ID:          "sql-delete-all",
				Description: "DELETE without WHERE",
				Pattern:     regexp.MustCompile(`(?i)\bDELETE\s+FROM\s+\S+`),
				Unless:      regexp.MustCompile(`(?i)\bWHERE\b`),
			},
			{
				ID:          "remote-script-exec",
				Description: "Remote script piped to a shell",
				Pattern:     regexp.MustCompile(`(?i)\b(?:curl|wget)\b[^|]*\|\s*(?:sudo\s+)?(?:ba|z)?sh\b`),
			},
			{
				ID:          "tls-verification-disabled",
				Description: "TLS verification disabled",
				Pattern: regexp.MustCompile(`(?i)\bcurl\b.*\s(?:-k|--insecure)\b|--no-check-certificate|InsecureSkipVerify\s*[:=]\s*true|` +
					`\bverify\s*=\s*False\b|NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*["']?0|sslVerify\s*(?:=\s*)?false|sslmode=disable|` +
					`\bsetHostnameVerifier\s*\(.*ALLOW_ALL|\btrustAllCerts\b`),
			},
			{
				ID:          "auth-disabled",
				Description: "Authentication disabled",
				Pattern: regexp.MustCompile(`(?i)--skip-grant-tables|--no-auth\b|` +
					`\bauth(?:entication)?(?:[._]enabled)?\s*[:=]\s*["']?(?:false|none|disabled|off)\b|` +
					`\bsecurity\.enabled\s*[:=]\s*false\b|\bhost\s+all\s+all\s+\S+\s+trust\b`),
			},
		},
		Escalation: []EscalationRule{
			{ID: "sudo", Pattern: regexp.MustCompile(`(?i)\b(?:sudo|doas|runas)\b`)},
			{ID: "switch-user", Pattern: regexp.MustCompile(`(?i)\bsu\s+(?:-(?:\s|$)|root\b)`)},
			{ID: "privileged-container", Pattern: regexp.MustCompile(`--privileged\b`)},
			{ID: "grant-all", Pattern: regexp.MustCompile(`(?i)\bGRANT\s+ALL\b`)},
			{ID: "as-root", Pattern: regexp.MustCompile(`(?i)\bas\s+root\b`)},
			{ID: "setuid", Pattern: regexp.MustCompile(`(?i)\bchmod\s+[ugoa]*\+s\b`)},
		},
	}
}
