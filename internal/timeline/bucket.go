package timeline

import (
	"fmt"
	"time"
)

// DefaultSections 倒计时分段的标准顺序，越往后越接近婚期
var DefaultSections = []string{
	"11 months out",
	"10 months out",
	"9 months out",
	"8 months out",
	"7 months out",
	"6 months out",
	"5 months out",
	"4 months out",
	"3 months out",
	"Final two months",
}

// DefaultMonthsBefore 每个分段在婚期前多少个月开启
var DefaultMonthsBefore = map[string]int{
	"11 months out":    11,
	"10 months out":    10,
	"9 months out":     9,
	"8 months out":     8,
	"7 months out":     7,
	"6 months out":     6,
	"5 months out":     5,
	"4 months out":     4,
	"3 months out":     3,
	"Final two months": 2,
}

// TimeBucket 倒计时分段。Index 为标准顺序中的位置
type TimeBucket struct {
	Index   int    `json:"index"`
	Section string `json:"section"`
}

// Window 分段在某个婚期下的开启时间和截止时间
type Window struct {
	Opens time.Time
	Due   time.Time
}

// BucketSchedule 把分段映射到具体日期，由调度方提供
type BucketSchedule interface {
	Window(bucket TimeBucket, eventDate time.Time) (Window, error)
}

// Crossed 判断在 now 时刻分段是否已经开启
func Crossed(s BucketSchedule, bucket TimeBucket, eventDate, now time.Time) (bool, error) {
	w, err := s.Window(bucket, eventDate)
	if err != nil {
		return false, err
	}
	return !now.Before(w.Opens), nil
}

// MonthsSchedule 按"婚期前 N 个月"计算分段窗口。
// 分段截止于下一个分段开启的时间，最后一个分段截止于婚期当天。
type MonthsSchedule struct {
	months []int
	index  map[string]int
}

func NewMonthsSchedule(sections []string, monthsBefore map[string]int) (*MonthsSchedule, error) {
	s := &MonthsSchedule{
		months: make([]int, len(sections)),
		index:  make(map[string]int, len(sections)),
	}
	for i, section := range sections {
		m, ok := monthsBefore[section]
		if !ok {
			return nil, fmt.Errorf("no month offset for section %q", section)
		}
		if m < 0 {
			return nil, fmt.Errorf("negative month offset for section %q", section)
		}
		if i > 0 && m >= s.months[i-1] {
			return nil, fmt.Errorf("section %q (%d months) is not closer to the event than %q (%d months)",
				section, m, sections[i-1], s.months[i-1])
		}
		s.months[i] = m
		s.index[section] = i
	}
	return s, nil
}

// DefaultSchedule 标准分段对应的月份表
func DefaultSchedule() *MonthsSchedule {
	s, err := NewMonthsSchedule(DefaultSections, DefaultMonthsBefore)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *MonthsSchedule) Window(bucket TimeBucket, eventDate time.Time) (Window, error) {
	i, ok := s.index[bucket.Section]
	if !ok {
		return Window{}, Validationf("schedule.window", "unknown section %q", bucket.Section)
	}
	w := Window{
		Opens: eventDate.AddDate(0, -s.months[i], 0),
		Due:   eventDate,
	}
	if i+1 < len(s.months) {
		w.Due = eventDate.AddDate(0, -s.months[i+1], 0)
	}
	return w, nil
}
