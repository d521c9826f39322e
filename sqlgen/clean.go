package sqlgen

import "strings"

// CleanSQL strips the Markdown fencing models sometimes wrap around their
// output, drops a leading sql language tag, and trims whitespace.
func CleanSQL(raw string) string {
	sql := strings.TrimSpace(raw)
	if strings.HasPrefix(sql, "```") {
		sql = strings.Trim(sql, "`")
		if len(sql) >= 3 && strings.EqualFold(sql[:3], "sql") {
			sql = sql[3:]
		}
	}
	return strings.TrimSpace(sql)
}
