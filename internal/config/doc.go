// Package config loads, validates, and watches the pulsewatch YAML
// configuration. Secrets (webhook URLs, auth credentials, the Postgres DSN)
// are referenced indirectly through environment variable names so the config
// file itself can be committed safely.
package config
