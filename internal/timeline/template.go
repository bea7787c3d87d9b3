package timeline

// Owner 模板的负责方
type Owner string

const (
	OwnerClient  Owner = "client"
	OwnerPlanner Owner = "planner"
)

func (o Owner) Valid() bool {
	return o == OwnerClient || o == OwnerPlanner
}

// TaskTemplate 目录中的任务模板，加载后不可变
type TaskTemplate struct {
	Key            string `json:"key" yaml:"-"`
	Title          string `json:"title" yaml:"title"`
	Section        string `json:"section" yaml:"-"`
	Owner          Owner  `json:"owner" yaml:"owner"`
	Importance     int    `json:"importance" yaml:"importance"`
	Milestone      bool   `json:"milestone" yaml:"milestone"`
	Confetti       bool   `json:"confetti" yaml:"confetti"`
	PushOnActivate bool   `json:"push_on_activate" yaml:"push_on_activate"`
}

// Celebrates 完成时是否需要庆祝信号
func (t TaskTemplate) Celebrates() bool {
	return t.Milestone || t.Confetti
}

// SectionGroup 同一分段下的一组模板，按目录书写顺序排列
type SectionGroup struct {
	Section   string         `yaml:"section"`
	Templates []TaskTemplate `yaml:"templates"`
}
