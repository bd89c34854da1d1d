package conn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// sqliteDSN builds a modernc.org/sqlite data source with a busy timeout,
// foreign key enforcement and WAL journaling for file databases.
func sqliteDSN(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// postgresDSN builds a lib/pq keyword/value connection string. An explicit
// DSN is returned unchanged.
func postgresDSN(c types.PostgresConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	port := c.Port
	if port == 0 {
		port = types.DefaultPostgresPort
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = types.DefaultPostgresSSLMode
	}

	parts := []string{
		"host=" + quoteDSNValue(c.Host),
		"port=" + strconv.Itoa(port),
		"dbname=" + quoteDSNValue(c.Database),
		"sslmode=" + quoteDSNValue(sslmode),
	}
	if c.User != "" {
		parts = append(parts, "user="+quoteDSNValue(c.User))
	}
	if c.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(c.Password))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a value when it contains spaces, quotes or
// backslashes, escaping the latter two.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
