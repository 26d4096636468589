package libhry

import (
	"github.com/plan-systems/klog"
)

// LogProgress reports coding progress through klog at verbosity 2.
type LogProgress struct {
	Label string

	total int
	step  int
}

func (p *LogProgress) Start(total int) {
	p.total = total
	p.step = total / 10
	if p.step == 0 {
		p.step = 1
	}
	klog.V(2).Infof("%s: %d elements", p.Label, total)
}

func (p *LogProgress) Tick(i int) {
	if (i+1)%p.step == 0 {
		klog.V(2).Infof("%s: %d/%d", p.Label, i+1, p.total)
	}
}

func (p *LogProgress) End() {
	klog.V(2).Infof("%s: done", p.Label)
}
