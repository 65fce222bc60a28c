package strategy

import (
	"tradesim/market"
	"tradesim/portfolio"
)

// Policy 外部策略（训练循环）的适配器：Set 写入下一次决策，Signal 取出后复位为 Hold。
type Policy struct {
	next Intent
}

func NewPolicy() *Policy { return &Policy{next: Hold()} }

func (*Policy) Name() string { return "policy" }

// Set 设定下一次 Signal 返回的意图。
func (p *Policy) Set(i Intent) { p.next = i }

func (p *Policy) Signal(string, []market.Bar, portfolio.State) Intent {
	i := p.next
	p.next = Hold()
	return i
}
