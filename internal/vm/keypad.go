package vm

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Keypad is the 16-key input surface. Besides the level state it records
// key-down edges, which wait-for-key consumes.
type Keypad struct {
	down  [KeyCount]bool
	edges uint16 // bit n set when key n went down since the last clear
}

func (k *Keypad) Press(key Key) {
	key &= 0x0F
	if !k.down[key] {
		k.edges |= 1 << key
	}
	k.down[key] = true
}

func (k *Keypad) Release(key Key) {
	k.down[key&0x0F] = false
}

// SetKeys overwrites the whole key state with a polled snapshot.
func (k *Keypad) SetKeys(state [KeyCount]bool) {
	for i, pressed := range state {
		if pressed {
			k.Press(Key(i))
		} else {
			k.Release(Key(i))
		}
	}
}

func (k *Keypad) IsPressed(key Key) bool {
	return k.down[key&0x0F]
}

func (k *Keypad) Reset() {
	k.down = [KeyCount]bool{}
	k.edges = 0
}

func (k *Keypad) clearEdges() {
	k.edges = 0
}

// takeEdge returns and forgets the lowest key with a pending down edge.
func (k *Keypad) takeEdge() (Key, bool) {
	if k.edges == 0 {
		return 0, false
	}

	for i := Key(0); i < KeyCount; i++ {
		if k.edges&(1<<i) != 0 {
			k.edges &^= 1 << i
			return i, true
		}
	}
	return 0, false
}
