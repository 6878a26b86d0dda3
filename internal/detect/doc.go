// Package detect implements the pattern scanner: independent detectors for
// hardcoded secrets, prompt injection and destructive commands, driven by an
// explicit, versioned rule table.
//
// Task documents are handed to an autonomous agent as its prompt, so their
// text is untrusted input. The detectors cover the following threats.
//
// # Threat Model
//
// T1 - Credential Exposure: A task body or a sample file next to it carries
// a live credential (cloud access key, provider token, password assignment,
// PEM private key). The agent may echo it into commits, logs or pull
// requests. Mitigations: per-line secret rules, an optional gitleaks rule
// set, and masking of every matched span with a fixed-width mask so the
// value never reaches a report or log line. Whole-value interpolations such
// as ${DB_PASSWORD} are placeholders, not secrets.
//
// T2 - Prompt Injection: Text that tries to replace the agent's instructions
// ("ignore previous instructions", role reassignment, jailbreak personas) or
// to impersonate a system turn ([SYSTEM]:, <|system|>). System-role markers
// are only flagged outside code, where a sample of a chat template is
// legitimate.
//
// T3 - Destructive Commands: Commands in code blocks or inline code that
// delete recursively, overwrite disks, drop or empty tables, pipe remote
// scripts into a shell, or disable authentication and TLS verification. A
// rule may carry a qualifier that makes the command safe (--dry-run, a WHERE
// clause). A destructive command in the same block as a privilege
// escalation (sudo, su -, --privileged, GRANT ALL) is reported Critical.
//
// T4 - Pathological Patterns: Custom rules are user-supplied regular
// expressions. Every pattern compiles with an RE2 engine, so matching time
// stays linear in the input whatever the rule.
//
// # Design Principles
//
// Detectors never fail: a detector either reports findings or nothing, and
// one finding per line per detector keeps reports stable under noisy rules.
//
// False positives are acceptable. Detectors report; the gate decides what
// blocks.
//
// Rules are data. A Ruleset is an explicit value passed to NewScanner and
// its version is stamped on every run, so a report can be traced to the
// rules that produced it.
package detect
