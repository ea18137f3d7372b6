package services

import (
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// whereDomainOverlap 过滤 domain 数组与 domains 有交集的记录。
// Postgres 用数组运算符，SQLite 在数组字面量中查找带引号的元素
func whereDomainOverlap(tx *gorm.DB, domains []string) *gorm.DB {
	if len(domains) == 0 {
		return tx
	}
	if tx.Dialector.Name() == "postgres" {
		return tx.Where("domain && ?", pq.Array(domains))
	}

	clauses := make([]string, 0, len(domains))
	args := make([]any, 0, len(domains))
	for _, d := range domains {
		// instr 区分大小写且没有通配符，与 && 的精确匹配一致
		clauses = append(clauses, "instr(domain, ?) > 0")
		args = append(args, quoteArrayElem(d))
	}
	return tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// quoteArrayElem renders v the way pq.StringArray does inside an array literal.
func quoteArrayElem(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
