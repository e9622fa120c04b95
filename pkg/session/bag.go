package session

import "github.com/aretw0/hivemesh/pkg/domain"

// Bag is a shard state opened for one call. It satisfies glyph.StateBag.
type Bag struct {
	state domain.ShardState
	dirty bool
}

// NewBag wraps state. A nil state starts empty.
func NewBag(state domain.ShardState) *Bag {
	if state == nil {
		state = domain.ShardState{}
	}
	return &Bag{state: state}
}

func (b *Bag) Get(key string) (any, bool) {
	return b.state.Get(key)
}

func (b *Bag) Set(key string, v any) {
	b.state.Set(key, v)
	b.dirty = true
}

// Dirty reports whether Set was called.
func (b *Bag) Dirty() bool { return b.dirty }

// Snapshot returns a copy of the current contents.
func (b *Bag) Snapshot() domain.ShardState {
	return b.state.Clone()
}
