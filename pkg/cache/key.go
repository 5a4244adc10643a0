package cache

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// KeyParts identifies one cacheable response. The actor ID keeps workers from
// ever seeing each other's payloads; role is part of the fingerprint because
// some handlers shape their response by role.
type KeyParts struct {
	Version    string
	Env        string
	Controller string
	Handler    string
	ActorID    string
	Role       string
	Method     string
	Query      url.Values
	Params     map[string]string
}

type keyFingerprint struct {
	Role   string            `json:"role"`
	Method string            `json:"method"`
	Query  string            `json:"query"`
	Params map[string]string `json:"params,omitempty"`
}

// Segments returns the ordered key segments to namespace under the shared
// redis prefix. The final segment is a canonical JSON fingerprint of the
// request shape so two requests differing only in query order still collide.
func (p KeyParts) Segments() []string {
	fp := keyFingerprint{
		Role:   p.Role,
		Method: p.Method,
		Query:  canonicalQuery(p.Query),
		Params: p.Params,
	}
	raw, err := json.Marshal(fp)
	if err != nil {
		raw = []byte("{}")
	}
	return []string{p.Version, p.Env, p.Controller, p.Handler, p.ActorID, string(raw)}
}

func canonicalQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		vals := append([]string(nil), values[key]...)
		sort.Strings(vals)
		for j, val := range vals {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(val)
		}
	}
	return b.String()
}
