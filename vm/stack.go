package vm

const (
	STACK_LIMIT = 16 // Call stack slots
)

// Stack is a fixed ring of return addresses. The stack pointer wraps
// at 256, and slots are indexed modulo STACK_LIMIT, so the 17th nested
// call silently reuses slot 0.
type Stack struct {
	Data [STACK_LIMIT]uint16
	Sp   uint8
}

func (s *Stack) Push(addr uint16) {
	s.Data[s.Sp&0xf] = addr
	s.Sp++
}

func (s *Stack) Pop() (addr uint16) {
	s.Sp--
	return s.Data[s.Sp&0xf]
}

func (s *Stack) Peek() (addr uint16) {
	return s.Data[(s.Sp-1)&0xf]
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Sp = 0
}
