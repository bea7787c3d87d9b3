package timeline

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog 经过校验的只读模板目录。构造完成后不再修改，可并发读取。
type Catalog struct {
	buckets   []TimeBucket
	templates []TaskTemplate
	byKey     map[string]int
	bySection [][]int
}

// NewCatalog 按标准分段顺序构造目录并校验：
// key 全局唯一且非空、分段按倒计时顺序出现、importance 在 [1,5]、owner 合法。
func NewCatalog(sections []string, groups []SectionGroup) (*Catalog, error) {
	c := &Catalog{
		buckets:   make([]TimeBucket, len(sections)),
		byKey:     make(map[string]int),
		bySection: make([][]int, len(sections)),
	}
	position := make(map[string]int, len(sections))
	for i, s := range sections {
		if _, dup := position[s]; dup {
			return nil, Validationf("catalog", "section %q listed twice in canonical order", s)
		}
		position[s] = i
		c.buckets[i] = TimeBucket{Index: i, Section: s}
	}

	var problems []string
	last := -1
	for _, g := range groups {
		idx, ok := position[g.Section]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown section %q", g.Section))
			continue
		}
		if idx <= last {
			problems = append(problems, fmt.Sprintf("section %q out of countdown order", g.Section))
			continue
		}
		last = idx

		for _, t := range g.Templates {
			t.Section = g.Section
			t.Title = strings.TrimSpace(t.Title)
			t.Key = KeyOf(t.Section, t.Title)

			switch {
			case t.Title == "":
				problems = append(problems, fmt.Sprintf("%s: empty title", g.Section))
				continue
			case t.Key == "":
				problems = append(problems, fmt.Sprintf("%s: title %q yields an empty key", g.Section, t.Title))
				continue
			case t.Importance < 1 || t.Importance > 5:
				problems = append(problems, fmt.Sprintf("%s: importance %d out of range", t.Key, t.Importance))
				continue
			case !t.Owner.Valid():
				problems = append(problems, fmt.Sprintf("%s: invalid owner %q", t.Key, t.Owner))
				continue
			}
			if _, dup := c.byKey[t.Key]; dup {
				problems = append(problems, fmt.Sprintf("duplicate key %q", t.Key))
				continue
			}

			c.byKey[t.Key] = len(c.templates)
			c.bySection[idx] = append(c.bySection[idx], len(c.templates))
			c.templates = append(c.templates, t)
		}
	}

	if len(problems) > 0 {
		return nil, Validationf("catalog", "%s", strings.Join(problems, "; "))
	}
	return c, nil
}

type catalogDocument struct {
	Sections []SectionGroup `yaml:"sections"`
}

// ParseCatalog 从 YAML 文档解析目录
func ParseCatalog(data []byte, sections []string) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return NewCatalog(sections, doc.Sections)
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog 内置目录，进程内只构造一次
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(catalogYAML, DefaultSections)
	})
	return defaultCatalog, defaultCatalogErr
}

// MustDefaultCatalog 内置目录校验失败时直接 panic，用于进程启动
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Buckets 返回标准顺序下的全部分段
func (c *Catalog) Buckets() []TimeBucket {
	out := make([]TimeBucket, len(c.buckets))
	copy(out, c.buckets)
	return out
}

// Templates 目录顺序下的全部模板（副本）
func (c *Catalog) Templates() []TaskTemplate {
	out := make([]TaskTemplate, len(c.templates))
	copy(out, c.templates)
	return out
}

// Section 某个分段下的模板
func (c *Catalog) Section(b TimeBucket) []TaskTemplate {
	if b.Index < 0 || b.Index >= len(c.bySection) || c.buckets[b.Index].Section != b.Section {
		return nil
	}
	idx := c.bySection[b.Index]
	out := make([]TaskTemplate, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.templates[i])
	}
	return out
}

// BucketOf 按分段名查找分段
func (c *Catalog) BucketOf(section string) (TimeBucket, bool) {
	for _, b := range c.buckets {
		if b.Section == section {
			return b, true
		}
	}
	return TimeBucket{}, false
}

func (c *Catalog) Lookup(key string) (TaskTemplate, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return TaskTemplate{}, false
	}
	return c.templates[i], true
}

func (c *Catalog) Len() int { return len(c.templates) }
