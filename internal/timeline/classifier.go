package timeline

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryOther 没有任何规则命中时的分类
const CategoryOther = "Other"

// CategoryRule 一条分类规则。Priority 越小越先匹配
type CategoryRule struct {
	Label    string   `yaml:"label" json:"label"`
	Priority int      `yaml:"priority" json:"priority"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Classifier 按优先级依次用关键字子串匹配标题，纯函数，可并发使用
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier 校验并按 (priority, label) 排序规则
func NewClassifier(rules []CategoryRule) (*Classifier, error) {
	seenLabel := make(map[string]bool, len(rules))
	seenPriority := make(map[int]string, len(rules))
	sorted := make([]CategoryRule, 0, len(rules))

	for _, r := range rules {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, Validationf("classifier", "rule with empty label")
		}
		if label == CategoryOther {
			return nil, Validationf("classifier", "%q is reserved for the fallback", CategoryOther)
		}
		if seenLabel[label] {
			return nil, Validationf("classifier", "duplicate label %q", label)
		}
		if other, ok := seenPriority[r.Priority]; ok {
			return nil, Validationf("classifier", "%q and %q share priority %d", other, label, r.Priority)
		}
		seenLabel[label] = true
		seenPriority[r.Priority] = label

		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			return nil, Validationf("classifier", "rule %q has no keywords", label)
		}
		sorted = append(sorted, CategoryRule{Label: label, Priority: r.Priority, Keywords: keywords})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Label < sorted[j].Label
	})
	return &Classifier{rules: sorted}, nil
}

type categoryDocument struct {
	Categories []CategoryRule `yaml:"categories"`
}

// ParseClassifier 从 YAML 文档构造分类器
func ParseClassifier(data []byte) (*Classifier, error) {
	var doc categoryDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode category rules: %w", err)
	}
	return NewClassifier(doc.Categories)
}

// DefaultClassifier 内置的分类规则
func DefaultClassifier() (*Classifier, error) {
	return ParseClassifier(categoriesYAML)
}

// Classify 返回第一条命中规则的标签，否则返回 Other
func (c *Classifier) Classify(title string) string {
	lower := strings.ToLower(title)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r.Label
			}
		}
	}
	return CategoryOther
}

// Categories 按匹配优先级列出所有分类，最后是 Other
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Label)
	}
	return append(out, CategoryOther)
}

// Rules 排序后的规则副本
func (c *Classifier) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{Label: r.Label, Priority: r.Priority, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
