package history

import "medibot-afrika/internal/consultation"

// boundedLog is a fixed-capacity, newest-first list. Its backing array is
// allocated once; pushing onto a full log drops the oldest entry.
type boundedLog struct {
	items []consultation.ConsultationRecord
}

func newBoundedLog(capacity int, existing []consultation.ConsultationRecord) *boundedLog {
	if capacity < 1 {
		capacity = 1
	}
	b := &boundedLog{items: make([]consultation.ConsultationRecord, 0, capacity)}
	if len(existing) > capacity {
		existing = existing[:capacity]
	}
	b.items = append(b.items, existing...)
	return b
}

func (b *boundedLog) PushFront(r consultation.ConsultationRecord) {
	if len(b.items) < cap(b.items) {
		b.items = b.items[:len(b.items)+1]
	}
	copy(b.items[1:], b.items[:len(b.items)-1])
	b.items[0] = r
}

func (b *boundedLog) Len() int {
	return len(b.items)
}

func (b *boundedLog) Records() []consultation.ConsultationRecord {
	return b.items
}
