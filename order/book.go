package order

// Book 按提交顺序记录订单，同一 ID 再次写入时原位覆盖。单次回测独占，不做并发保护。
type Book struct {
	orders []Order
	index  map[string]int
}

func NewBook() *Book {
	return &Book{index: make(map[string]int)}
}

// Set 新增或覆盖订单。
func (b *Book) Set(o Order) {
	if i, ok := b.index[o.ID]; ok {
		b.orders[i] = o
		return
	}
	b.index[o.ID] = len(b.orders)
	b.orders = append(b.orders, o)
}

// List 返回全部订单（拷贝），顺序与提交一致。
func (b *Book) List() []Order {
	return append([]Order(nil), b.orders...)
}

// Reset 清空记录。
func (b *Book) Reset() {
	b.orders = nil
	b.index = make(map[string]int)
}
