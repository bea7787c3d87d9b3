package timeline

import "strings"

// KeyOf 由 section 和 title 生成模板 key：
// 小写化 "<section>:<title>"，连续的非 [a-z0-9] 字符折叠为一个 '-'，并去掉首尾的 '-'。
func KeyOf(section, title string) string {
	raw := strings.ToLower(section + ":" + title)

	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
