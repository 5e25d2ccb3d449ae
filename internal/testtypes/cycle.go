package testtypes

import "reflect"

var (
	TypeCycleA = reflect.TypeFor[*CycleA]()
	TypeCycleB = reflect.TypeFor[*CycleB]()
	TypeCycleC = reflect.TypeFor[*CycleC]()
)

// CycleA, CycleB, and CycleC depend on each other: A -> B -> A, and C -> C.
type (
	CycleA struct{ B *CycleB }
	CycleB struct{ A *CycleA }
	CycleC struct{ C *CycleC }
)

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }
func NewCycleC(c *CycleC) *CycleC { return &CycleC{C: c} }
