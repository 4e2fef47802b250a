package database

import "strings"

// Rebind converts PostgreSQL-style positional placeholders ($1, $2, ...) to
// the placeholder style of the given driver. Repositories are written against
// the postgres style and rebound once at construction time for mysql.
func Rebind(driver, query string) string {
	if driver != "mysql" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))

	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}

		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			// Bare "$", not a placeholder.
			b.WriteByte(query[i])
			continue
		}

		b.WriteByte('?')
		i = j - 1
	}

	return b.String()
}
